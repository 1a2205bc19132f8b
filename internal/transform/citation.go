package transform

import (
	"fmt"

	"github.com/goliatone/go-heal-dataverse/internal/dataverse"
)

const (
	// IdentifierSchemeORCID is the only investigator identifier scheme
	// Dataverse accepts from HEAL records.
	IdentifierSchemeORCID = "ORCID"
	// SubjectMedicine is the fixed Dataverse subject of HEAL studies.
	SubjectMedicine = "Medicine, Health and Life Sciences"
)

// citationFields builds title, author, datasetContact, dsDescription and
// subject, in that order.
func (t *Transformer) citationFields(record map[string]any) ([]*dataverse.Field, error) {
	minimal, _ := record[categoryMinimalInfo].(map[string]any)
	citation, _ := record[categoryCitation].(map[string]any)
	contacts, _ := record[categoryContactsAndRegistrants].(map[string]any)

	authors, err := authorGroups(citation[fieldInvestigators])
	if err != nil {
		return nil, err
	}
	datasetContacts, err := contactGroups(contacts[fieldContacts])
	if err != nil {
		return nil, err
	}

	return []*dataverse.Field{
		dataverse.NewPrimitive("title", scalarString(minimal["study_name"])),
		dataverse.NewGroups("author", authors),
		dataverse.NewGroups("datasetContact", datasetContacts),
		dataverse.NewGroups("dsDescription", []dataverse.Group{{
			dataverse.NewPrimitive("dsDescriptionValue", scalarString(minimal["study_description"])),
		}}),
		dataverse.NewMultiple("subject", dataverse.ControlledVocabulary, []string{SubjectMedicine}),
	}, nil
}

func authorGroups(raw any) ([]dataverse.Group, error) {
	investigators := entryList(raw)
	groups := make([]dataverse.Group, 0, len(investigators))
	for i, investigator := range investigators {
		path := fmt.Sprintf("%s.%s[%d]", categoryCitation, fieldInvestigators, i)

		scheme, identifier := IdentifierSchemeORCID, ""
		if ids := entryList(investigator["investigator_ID"]); len(ids) > 0 {
			scheme = scalarString(ids[0]["investigator_ID_type"])
			identifier = scalarString(ids[0]["investigator_ID_value"])
		}
		if scheme != IdentifierSchemeORCID {
			return nil, &UnsupportedIdentifierSchemeError{
				Path:   path + ".investigator_ID[0].investigator_ID_type",
				Scheme: scheme,
			}
		}

		groups = append(groups, dataverse.Group{
			dataverse.NewPrimitive("authorName", displayName(
				investigator["investigator_last_name"],
				investigator["investigator_first_name"],
			)),
			dataverse.NewPrimitive("authorAffiliation", scalarString(investigator["investigator_affiliation"])),
			dataverse.NewVocabulary("authorIdentifierScheme", scheme),
			dataverse.NewPrimitive("authorIdentifier", identifier),
		})
	}
	return groups, nil
}

func contactGroups(raw any) ([]dataverse.Group, error) {
	contacts := entryList(raw)
	groups := make([]dataverse.Group, 0, len(contacts))
	for i, contact := range contacts {
		if !present(contact, "contact_email") {
			return nil, &MissingContactEmailError{
				Path: fmt.Sprintf("%s.%s[%d].contact_email", categoryContactsAndRegistrants, fieldContacts, i),
			}
		}
		groups = append(groups, dataverse.Group{
			dataverse.NewPrimitive("datasetContactEmail", scalarString(contact["contact_email"])),
			dataverse.NewPrimitive("datasetContactName", displayName(
				contact["contact_last_name"],
				contact["contact_first_name"],
			)),
		})
	}
	return groups, nil
}

// entryList keeps list positions so error paths match the record; non
// object entries become empty entries.
func entryList(raw any) []map[string]any {
	items, ok := raw.([]any)
	if !ok {
		return objectList(raw)
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		entry, _ := item.(map[string]any)
		if entry == nil {
			entry = map[string]any{}
		}
		out[i] = entry
	}
	return out
}

func displayName(last, first any) string {
	return scalarString(last) + ", " + scalarString(first)
}
