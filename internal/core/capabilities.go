package core

import "github.com/valter-silva-au/docup/pkg/models"

// SelectCapabilities returns the providers to grant for a documentation
// type. The knowledge base is always granted; browser automation only for
// user-facing docs. Codebase access is never a provider grant: it is
// described in the prompt instead.
func SelectCapabilities(docType models.DocType) (models.CapabilitySet, error) {
	kind, err := kindOf(docType)
	if err != nil {
		return nil, err
	}
	return kind.capabilities(), nil
}
