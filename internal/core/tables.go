package core

// ReferenceTable is the college information table.
var ReferenceTable = TableInfo{
	Key:   "college_information",
	Label: "college information",
	FieldSpecs: []FieldSpec{
		{Name: ColCollegeID, Required: true},
		{Name: ColStatus, Required: true},
		{Name: ColHomeUniversity, Required: true},
	},
}

// CutoffsTable is the primary table being enriched. Any other columns are
// carried through verbatim.
var CutoffsTable = TableInfo{
	Key:   "combined_cutoffs",
	Label: "combined cutoffs",
	FieldSpecs: []FieldSpec{
		{Name: ColCollegeCode, Required: true},
	},
}

// AppendedColumns are added, in order, after the cutoffs columns.
var AppendedColumns = []string{ColStatus, ColHomeUniversity}
