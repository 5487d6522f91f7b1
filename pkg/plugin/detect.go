package plugin

import "github.com/signia-project/signia/pkg/canonicaljson"

// DetectKind classifies a canonical JSON input per §4.E's first-match-wins
// rules. Order matters: a document satisfying both the repo and dataset
// shapes (e.g. carrying both `files` and `rows`) is classified repo because
// that rule is checked first.
func DetectKind(input canonicaljson.Value) Kind {
	if input.Kind() != canonicaljson.KindObject {
		return KindUnknown
	}

	if isRepoShape(input) {
		return KindRepo
	}
	if isDatasetShape(input) {
		return KindDataset
	}
	if isWorkflowShape(input) {
		return KindWorkflow
	}
	if isOpenAPIShape(input) {
		return KindOpenAPI
	}
	return KindUnknown
}

func isRepoShape(input canonicaljson.Value) bool {
	files, ok := input.Get("files")
	if !ok || files.Kind() != canonicaljson.KindArray {
		return false
	}
	_, hasName := input.Get("name")
	return hasName
}

func isDatasetShape(input canonicaljson.Value) bool {
	if rows, ok := input.Get("rows"); ok && rows.Kind() == canonicaljson.KindArray {
		return true
	}
	files, ok := input.Get("files")
	if !ok || files.Kind() != canonicaljson.KindArray {
		return false
	}
	hasSize := false
	for _, f := range files.Array() {
		if f.Kind() != canonicaljson.KindObject {
			continue
		}
		if _, ok := f.Get("size"); ok {
			hasSize = true
			break
		}
	}
	if !hasSize {
		return false
	}
	_, hasNodes := input.Get("nodes")
	_, hasEdges := input.Get("edges")
	return !(hasNodes && hasEdges)
}

func isWorkflowShape(input canonicaljson.Value) bool {
	nodes, hasNodes := input.Get("nodes")
	edges, hasEdges := input.Get("edges")
	if !hasNodes || !hasEdges {
		return false
	}
	if nodes.Kind() != canonicaljson.KindArray || edges.Kind() != canonicaljson.KindArray {
		return false
	}
	for _, n := range nodes.Array() {
		if n.Kind() != canonicaljson.KindObject {
			return false
		}
		if _, ok := n.Get("type"); !ok {
			return false
		}
	}
	for _, e := range edges.Array() {
		if e.Kind() != canonicaljson.KindObject {
			return false
		}
		kindVal, ok := e.Get("kind")
		if !ok || kindVal.Kind() != canonicaljson.KindString {
			return false
		}
		switch kindVal.String() {
		case "data", "control", "event":
		default:
			return false
		}
	}
	return true
}

func isOpenAPIShape(input canonicaljson.Value) bool {
	if v, ok := input.Get("openapi"); ok && v.Kind() == canonicaljson.KindString {
		return true
	}
	if v, ok := input.Get("swagger"); ok && v.Kind() == canonicaljson.KindString {
		return true
	}
	return false
}
