package domain

// File is a registered image.
type File struct {
	// ID is the store-assigned identifier.
	ID int64

	// Path is the absolute file path. Unique across the corpus.
	Path string

	// Processed reports whether the file has been materialized.
	// Processed implies FinalLabelID is set.
	Processed bool

	// FinalLabelID is the label committed by cluster resolution, or nil.
	FinalLabelID *int64
}

// Label is a detection class name. Names are unique and case-sensitive.
type Label struct {
	ID   int64
	Name string
}

// FileLabelWeight associates a file with a label and the weight of the
// detection that produced it. At most one weight exists per pair.
type FileLabelWeight struct {
	FileID  int64
	LabelID int64
	Weight  float64
}

// LabelCount is a label with the number of distinct files referencing it.
type LabelCount struct {
	Label Label
	Files int
}

// BestLabel is the highest-weight candidate label of one file.
type BestLabel struct {
	FileID    int64
	FilePath  string
	LabelID   int64
	LabelName string
	Weight    float64
}

// FinalAssignment pairs a file with the label it is clustered under.
type FinalAssignment struct {
	LabelID int64
	FileID  int64
}

// FinalFile is a file with a committed final label, ready for materialization.
type FinalFile struct {
	FileID    int64
	FilePath  string
	LabelName string
	Processed bool
}

// AssignmentsFrom converts best labels into final assignments.
func AssignmentsFrom(best []BestLabel) []FinalAssignment {
	pairs := make([]FinalAssignment, len(best))
	for i, b := range best {
		pairs[i] = FinalAssignment{LabelID: b.LabelID, FileID: b.FileID}
	}
	return pairs
}
