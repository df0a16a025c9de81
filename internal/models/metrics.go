package models

type SourceKind string

const (
	Remote SourceKind = "remote"
	Local  SourceKind = "local"
)

// Source describes one configured metric origin. For Remote sources Name is a
// fetchable address; for Local sources it is a file path.
type Source struct {
	ID   string     `json:"id"`
	Kind SourceKind `json:"kind"`
	Name string     `json:"name"`
}

// Metric is a single normalized sample. Source carries the provenance label of
// the source that contributed it; parsers leave it empty and the store fills it.
type Metric struct {
	Name   string            `json:"name"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
	Source string            `json:"source,omitempty"`
}
