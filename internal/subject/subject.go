// Package subject maps between (tenant, person) pairs and the composite
// subject ids used by the external recognition engine. The engine shares one
// flat namespace across all tenants, so every subject id carries its tenant
// id as a prefix.
package subject

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/face-registry/internal/tenant"
)

// Separator joins the tenant id and the person id inside a subject id.
const Separator = "_"

// DecomposeError indicates a subject id that does not belong to any catalog
// tenant, e.g. one registered by a foreign or retired deployment.
type DecomposeError struct {
	SubjectID string
}

func (e *DecomposeError) Error() string {
	return fmt.Sprintf("subject id %q does not match any catalog tenant", e.SubjectID)
}

// Compose builds the engine-side subject id for a person.
func Compose(tenantID, personID string) string {
	return tenantID + Separator + personID
}

// Decompose splits a subject id back into its tenant and person ids. Tenant
// ids may themselves contain the separator (e.g. "pao_de_acucar"), so the
// split point is found by matching catalog tenant ids as prefixes, longest
// first, rather than cutting at the first separator.
func Decompose(cat *tenant.Catalog, subjectID string) (tenantID, personID string, err error) {
	var best tenant.Tenant
	found := false
	for _, t := range cat.List() {
		if !strings.HasPrefix(subjectID, t.ID+Separator) {
			continue
		}
		if !found || len(t.ID) > len(best.ID) {
			best = t
			found = true
		}
	}
	if !found {
		return "", "", &DecomposeError{SubjectID: subjectID}
	}

	personID = subjectID[len(best.ID)+len(Separator):]
	if personID == "" {
		return "", "", &DecomposeError{SubjectID: subjectID}
	}
	return best.ID, personID, nil
}
