package payload

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/sort"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/tweaking"
)

func newFacet(t *testing.T, id, name, child string, f facet.Filter) facet.Facet {
	t.Helper()
	fc, err := facet.NewChild(id, name, child, f)
	if err != nil {
		t.Fatalf("facet.NewChild: %v", err)
	}
	return fc
}

func newState(t *testing.T, p state.Params) state.State {
	t.Helper()
	if p.Tweaking == (tweaking.Config{}) {
		p.Tweaking = tweaking.Default()
	}
	s, err := state.New(p)
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return s
}

// body builds s and decodes the JSON back into a generic map.
func body(t *testing.T, b *Builder, s state.State) map[string]any {
	t.Helper()
	data, err := b.JSON(s)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return m
}

// path walks nested objects of m.
func path(t *testing.T, m map[string]any, keys ...string) any {
	t.Helper()
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("at %q: %T is not an object", k, cur)
		}
		cur, ok = obj[k]
		if !ok {
			t.Fatalf("key %q missing in %v", k, obj)
		}
	}
	return cur
}

func assertJSON(t *testing.T, got any, want string) {
	t.Helper()
	gotBytes, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wantAny any
	if err := json.Unmarshal([]byte(want), &wantAny); err != nil {
		t.Fatalf("bad expectation %s: %v", want, err)
	}
	wantBytes, _ := json.Marshal(wantAny)
	if !bytes.Equal(gotBytes, wantBytes) {
		t.Errorf("got  %s\nwant %s", gotBytes, wantBytes)
	}
}

func TestBuild_QueryString(t *testing.T) {
	s := newState(t, state.Params{
		QueryString:  "brain AND neuroscience",
		SelectedType: "Dataset",
		QueryFields:  map[string][]string{"Dataset": {"title.value^5", "description.value"}},
	})
	m := body(t, NewBuilder(), s)

	assertJSON(t, path(t, m, "query"), `{"query_string":{
		"fields":["title.value^5","description.value"],
		"lenient":true,
		"query":"(brain* OR brain* OR brain~) AND (neuroscience* OR neuroscience* OR neuroscience~)"}}`)
}

func TestBuild_EmptyQueryOmitted(t *testing.T) {
	m := body(t, NewBuilder(), newState(t, state.Params{QueryString: "   "}))
	if _, ok := m["query"]; ok {
		t.Errorf("query present for blank query string: %v", m["query"])
	}
	assertJSON(t, path(t, m, "post_filter"), `{"match_all":{}}`)
}

func TestBuild_UnknownTypeHasNoFields(t *testing.T) {
	m := body(t, NewBuilder(), newState(t, state.Params{QueryString: "mouse", SelectedType: "Model"}))
	qs := path(t, m, "query", "query_string").(map[string]any)
	if _, ok := qs["fields"]; ok {
		t.Errorf("fields = %v, want none", qs["fields"])
	}
}

func TestBuild_BoostedTypes(t *testing.T) {
	s := newState(t, state.Params{
		QueryString:  "mouse",
		SelectedType: "Dataset",
		QueryFields:  map[string][]string{"Dataset": {"title.value"}},
		BoostedTypes: []state.BoostedType{{Name: "Dataset", Boost: 10}, {Name: "Model", Boost: 2}},
	})
	m := body(t, NewBuilder(), s)

	assertJSON(t, path(t, m, "query"), `{"bool":{"should":[
		{"query_string":{"fields":["title.value"],"lenient":true,"query":"(mouse* OR mouse* OR mouse~)"}},
		{"term":{"_type":{"boost":10,"value":"Dataset"}}},
		{"term":{"_type":{"boost":2,"value":"Model"}}}
	]}}`)
}

func TestBuild_SpeciesScenario(t *testing.T) {
	s := newState(t, state.Params{
		SelectedType: "Dataset",
		QueryFields:  map[string][]string{"Dataset": {"title.value"}},
		Facets: []facet.Facet{
			newFacet(t, "species", "species", "", facet.List{Values: []string{"Mouse", "Human"}}),
			newFacet(t, "methods", "methods", "", facet.List{}),
		},
	})
	m := body(t, NewBuilder(), s)

	should := `{"bool":{"should":[
		{"term":{"species.value.keyword":"Mouse"}},
		{"term":{"species.value.keyword":"Human"}}
	]}}`
	assertJSON(t, path(t, m, "post_filter"), should)
	assertJSON(t, path(t, m, "aggregations", "methods", "filter"), should)
	// The facet's own selection is excluded from its own counts.
	assertJSON(t, path(t, m, "aggregations", "species", "filter"), `{"match_all":{}}`)
	// Type counts follow the other facets only.
	assertJSON(t, path(t, m, "aggregations", "facet_type", "filter"), should)
}

func TestBuild_SelfExclusionAcrossThreeFacets(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "a", "species", "", facet.List{Values: []string{"Mouse", "Human"}}),
			newFacet(t, "b", "license", "", facet.List{Values: []string{"CC-BY", "CC0"}}),
			newFacet(t, "c", "methods", "", facet.List{}),
		},
	})
	m := body(t, NewBuilder(), s)

	a := `{"bool":{"should":[{"term":{"species.value.keyword":"Mouse"}},{"term":{"species.value.keyword":"Human"}}]}}`
	b := `{"bool":{"should":[{"term":{"license.value.keyword":"CC-BY"}},{"term":{"license.value.keyword":"CC0"}}]}}`

	assertJSON(t, path(t, m, "aggregations", "c", "filter"), `{"bool":{"must":[`+a+`,`+b+`]}}`)
	assertJSON(t, path(t, m, "aggregations", "a", "filter"), b)
	assertJSON(t, path(t, m, "aggregations", "b", "filter"), a)
	assertJSON(t, path(t, m, "post_filter"), `{"bool":{"must":[`+a+`,`+b+`]}}`)
}

func TestBuild_ExclusiveListFlattened(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "a", "species", "", facet.List{Values: []string{"Mouse", "Human"}, Exclusive: true}),
			newFacet(t, "b", "license", "", facet.List{Values: []string{"CC0"}}),
		},
	})
	m := body(t, NewBuilder(), s)

	assertJSON(t, path(t, m, "post_filter"), `{"bool":{"must":[
		{"term":{"species.value.keyword":"Mouse"}},
		{"term":{"species.value.keyword":"Human"}},
		{"term":{"license.value.keyword":"CC0"}}
	]}}`)
}

func TestBuild_ListAggregation(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "count", "species", "", facet.List{}),
			newFacet(t, "value", "license", "", facet.List{Order: facet.ByValue, Size: 25}),
		},
	})
	m := body(t, NewBuilder(), s)

	aggs := path(t, m, "aggregations", "count", "aggregations")
	assertJSON(t, aggs, `{
		"species.value.keyword":{"terms":{"field":"species.value.keyword","order":[{"_count":"desc"}],"size":10}},
		"species.value.keyword_count":{"cardinality":{"field":"species.value.keyword"}}
	}`)

	terms := path(t, m, "aggregations", "value", "aggregations", "license.value.keyword", "terms")
	assertJSON(t, terms, `{"field":"license.value.keyword","order":[{"_term":"asc"}],"size":25}`)
}

func TestBuild_ChildAggregation(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "m", "methods", "name", facet.List{Values: []string{"MRI"}}),
			newFacet(t, "o", "other", "", facet.List{}),
		},
	})
	m := body(t, NewBuilder(), s)

	inner := path(t, m, "aggregations", "m", "aggregations", NestedAggName)
	assertJSON(t, path(t, inner.(map[string]any), "nested"), `{"path":"methods.children"}`)
	key := "methods.children.name.value.keyword"
	path(t, inner.(map[string]any), "aggregations", key, "terms")
	path(t, inner.(map[string]any), "aggregations", key+CountSuffix, "cardinality")

	// The child filter addresses the same nested field its buckets come from.
	childFilter := `{"nested":{"path":"methods.children","query":{"term":{"` + key + `":"MRI"}}}}`
	assertJSON(t, path(t, m, "aggregations", "o", "filter"), childFilter)
	assertJSON(t, path(t, m, "post_filter"), childFilter)
}

func TestBuild_ExistsFacet(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "doi", "doi", "", facet.Exists{}),
			newFacet(t, "species", "species", "", facet.List{Values: []string{"Mouse"}}),
		},
	})
	m := body(t, NewBuilder(), s)

	// Disabled: not in the post filter, but counted in its own aggregation.
	assertJSON(t, path(t, m, "post_filter"), `{"term":{"species.value.keyword":"Mouse"}}`)
	assertJSON(t, path(t, m, "aggregations", "doi"), `{"filter":{"bool":{"must":[
		{"exists":{"field":"doi.value.keyword"}},
		{"term":{"species.value.keyword":"Mouse"}}
	]}}}`)
	assertJSON(t, path(t, m, "aggregations", "species", "filter"), `{"match_all":{}}`)

	enabled := newState(t, state.Params{
		Facets: []facet.Facet{newFacet(t, "doi", "doi", "", facet.Exists{Enabled: true})},
	})
	m = body(t, NewBuilder(), enabled)
	assertJSON(t, path(t, m, "post_filter"), `{"exists":{"field":"doi.value.keyword"}}`)
}

func TestBuild_InputAndRangeHaveNoAggregation(t *testing.T) {
	s := newState(t, state.Params{
		Facets: []facet.Facet{
			newFacet(t, "title", "title", "", facet.Input{Value: "abc"}),
			newFacet(t, "year", "year", "", facet.Range{From: "2000"}),
		},
	})
	m := body(t, NewBuilder(), s)

	aggs := path(t, m, "aggregations").(map[string]any)
	if len(aggs) != 1 {
		t.Errorf("aggregations = %v, want only facet_type", aggs)
	}
	assertJSON(t, path(t, m, "post_filter"), `{"match_all":{}}`)
}

func TestBuild_TypeAggregation(t *testing.T) {
	s := newState(t, state.Params{SelectedType: "Dataset"})
	m := body(t, NewBuilder(), s)

	assertJSON(t, path(t, m, "aggregations", "facet_type"), `{
		"aggregations":{
			"_type":{"terms":{"field":"_type","size":50}},
			"_type_count":{"cardinality":{"field":"_type"}}
		},
		"filter":{"match_all":{}}
	}`)
	// A dedicated type index needs no type filter.
	assertJSON(t, path(t, m, "post_filter"), `{"match_all":{}}`)
}

func TestBuild_SharedIndexFiltersType(t *testing.T) {
	s := newState(t, state.Params{
		SelectedType: "Dataset",
		SharedIndex:  true,
		Facets: []facet.Facet{
			newFacet(t, "species", "species", "", facet.List{Values: []string{"Mouse"}}),
			newFacet(t, "doi", "doi", "", facet.Exists{}),
		},
	})
	m := body(t, NewBuilder(), s)

	typeTerm := `{"term":{"_type":"Dataset"}}`
	speciesTerm := `{"term":{"species.value.keyword":"Mouse"}}`
	assertJSON(t, path(t, m, "post_filter"), `{"bool":{"must":[`+speciesTerm+`,`+typeTerm+`]}}`)
	assertJSON(t, path(t, m, "aggregations", "species", "filter"), typeTerm)
	assertJSON(t, path(t, m, "aggregations", "doi", "filter"), `{"bool":{"must":[
		{"exists":{"field":"doi.value.keyword"}},`+speciesTerm+`,`+typeTerm+`]}}`)
	// Type counts still cover every type.
	assertJSON(t, path(t, m, "aggregations", "facet_type", "filter"), speciesTerm)
}

func TestBuild_Options(t *testing.T) {
	b := NewBuilder(WithTypeField("type"), WithTypeAggSize(5), WithHighlightFields("name.value"))
	s := newState(t, state.Params{
		QueryString:  "mouse",
		BoostedTypes: []state.BoostedType{{Name: "Dataset", Boost: 3}},
	})
	m := body(t, b, s)

	assertJSON(t, path(t, m, "aggregations", "facet_type", "aggregations", "type", "terms"),
		`{"field":"type","size":5}`)
	assertJSON(t, path(t, m, "highlight"), `{"encoder":"html","fields":{"name.value":{}}}`)
	should := path(t, m, "query", "bool", "should").([]any)
	assertJSON(t, should[1], `{"term":{"type":{"boost":3,"value":"Dataset"}}}`)

	m = body(t, NewBuilder(WithHighlightFields()), s)
	if _, ok := m["highlight"]; ok {
		t.Error("highlight present with no fields")
	}
}

func TestBuild_PagingSortHighlight(t *testing.T) {
	s := newState(t, state.Params{
		From: 40,
		Size: 20,
		Sort: sort.Relevance(),
	})
	m := body(t, NewBuilder(), s)

	if m["from"] != float64(40) || m["size"] != float64(20) {
		t.Errorf("from/size = %v/%v", m["from"], m["size"])
	}
	assertJSON(t, path(t, m, "sort"), `[
		{"_score":{"order":"desc"}},
		{"first_release.value":{"missing":"_last","order":"desc"}}
	]`)
	hl := path(t, m, "highlight").(map[string]any)
	if hl["encoder"] != "html" {
		t.Errorf("encoder = %v", hl["encoder"])
	}
	fields := hl["fields"].(map[string]any)
	if len(fields) != len(DefaultHighlightFields) {
		t.Errorf("highlight fields = %v", fields)
	}
}

func TestBuild_NoSortOmitted(t *testing.T) {
	m := body(t, NewBuilder(), newState(t, state.Params{}))
	if _, ok := m["sort"]; ok {
		t.Errorf("sort present: %v", m["sort"])
	}
}

func TestJSON_Deterministic(t *testing.T) {
	p := state.Params{
		QueryString:  "mouse AND (cortex OR hippocampus)",
		SelectedType: "Dataset",
		QueryFields:  map[string][]string{"Dataset": {"title.value^5"}},
		BoostedTypes: []state.BoostedType{{Name: "Dataset", Boost: 2}},
		Facets: []facet.Facet{
			newFacet(t, "species", "species", "", facet.List{Values: []string{"Mouse", "Human"}}),
			newFacet(t, "methods", "methods", "name", facet.List{Values: []string{"MRI"}, Exclusive: true}),
			newFacet(t, "doi", "doi", "", facet.Exists{Enabled: true}),
		},
		Sort: sort.Relevance(),
	}
	b := NewBuilder()

	first, err := b.JSON(newState(t, p))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.JSON(newState(t, p))
		if err != nil {
			t.Fatalf("JSON: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestBody(t *testing.T) {
	got, err := NewBuilder().Body(newState(t, state.Params{Size: 5}))
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if got["size"] != 5 {
		t.Errorf("size = %v", got["size"])
	}
}

func TestBuildAnalyzed(t *testing.T) {
	_, res := NewBuilder().BuildAnalyzed(newState(t, state.Params{QueryString: `foo "bar`}))
	if res.Query != `foo \"bar` {
		t.Errorf("Query = %q", res.Query)
	}
	if res.Outcome != "escaped" {
		t.Errorf("Outcome = %q", res.Outcome)
	}
}
