package cms

import (
	"fmt"
	"strings"

	"github.com/naveenspark/cmsdash/pkg/domain"
)

// selection is the field list requested for every record of k.
// References are fetched as nested objects carrying only their id.
func selection(k domain.Kind) string {
	parts := []string{"id"}
	for _, f := range k.Fields {
		if f.Reference() {
			parts = append(parts, f.Name+" { id }")
			continue
		}
		parts = append(parts, f.Name)
	}
	return strings.Join(parts, " ")
}

func listQuery(k domain.Kind) string {
	return fmt.Sprintf(`query ($start: Int, $limit: Int, $where: JSON) {
  %s(start: $start, limit: $limit, sort: "id:desc", where: $where) { %s }
  %sConnection(where: $where) { aggregate { count } }
}`, k.Collection, selection(k), k.Collection)
}

func getQuery(k domain.Kind) string {
	if k.Single {
		return fmt.Sprintf(`query { %s { %s } }`, k.Singular, selection(k))
	}
	return fmt.Sprintf(`query ($id: ID!) { %s(id: $id) { %s } }`, k.Singular, selection(k))
}

func createMutation(k domain.Kind) string {
	return fmt.Sprintf(`mutation ($data: %sInput!) {
  create%s(input: { data: $data }) { %s { %s } }
}`, k.Type, k.Type, k.Singular, selection(k))
}

func updateMutation(k domain.Kind) string {
	if k.Single {
		return fmt.Sprintf(`mutation ($data: edit%sInput!) {
  update%s(input: { data: $data }) { %s { %s } }
}`, k.Type, k.Type, k.Singular, selection(k))
	}
	return fmt.Sprintf(`mutation ($id: ID!, $data: edit%sInput!) {
  update%s(input: { where: { id: $id }, data: $data }) { %s { %s } }
}`, k.Type, k.Type, k.Singular, selection(k))
}

func deleteMutation(k domain.Kind) string {
	return fmt.Sprintf(`mutation ($id: ID!) {
  delete%s(input: { where: { id: $id } }) { %s { id } }
}`, k.Type, k.Singular)
}
