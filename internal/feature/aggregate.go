package feature

// FamilyCommon is the pseudo-family owning sniffer-derived features and
// the parser roll-up flags.
const FamilyCommon = "common"

// Parser roll-up features. Every format parser reports these two names;
// they are declared once under the common family, and the aggregator
// accepts them from parser output regardless of the detected family.
const (
	NameParserOK            = "parser_ok"
	NameStructureConsistent = "structure_consistent"
)

// Aggregate merges sniffer-derived common values and one parser's output
// into a schema-complete Record.
//
// Every declared feature starts at its schema default. Common-family
// features are overlaid from common, then features owned by family (plus
// the parser roll-up flags) are overlaid from parserFeats. A value whose
// runtime type does not match the declaration is treated as missing and
// the default is kept. Features of all other families stay at their
// defaults. The function is pure: identical inputs yield identical
// records.
func Aggregate(defs []Def, common map[string]any, family string, parserFeats map[string]any) *Record {
	r := newRecord(defs)
	for _, d := range defs {
		var raw any
		var present bool
		switch {
		case d.Family == FamilyCommon && (d.Name == NameParserOK || d.Name == NameStructureConsistent):
			raw, present = parserFeats[d.Name]
		case d.Family == FamilyCommon:
			raw, present = common[d.Name]
		case d.Family == family:
			raw, present = parserFeats[d.Name]
		}
		if !present {
			continue
		}
		if v, ok := d.Type.Normalize(raw); ok {
			r.set(d.Name, v)
		}
	}
	return r
}
