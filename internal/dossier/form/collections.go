package form

import "fmt"

// CollectionKind names one of the repeatable sub-record lists of a dossier.
type CollectionKind string

const (
	Companions CollectionKind = "companions"
	Trips      CollectionKind = "trips"
	Licenses   CollectionKind = "licenses"
	Relatives  CollectionKind = "relatives"
	Jobs       CollectionKind = "jobs"
	Courses    CollectionKind = "courses"
)

// Collection describes the item shape and storage table of a kind.
// Item fields are never required: a freshly created item is blank.
type Collection struct {
	Kind    CollectionKind
	Table   string
	Section int
	Fields  []Field
}

var collections = map[CollectionKind]Collection{
	Companions: {
		Kind: Companions, Table: "companions", Section: 4,
		Fields: []Field{text("name", "companion name"), text("relation", "relationship")},
	},
	Trips: {
		Kind: Trips, Table: "previous_trips", Section: 5,
		Fields: []Field{date("arrival_date", "arrival date"), text("stay_duration", "length of stay")},
	},
	Licenses: {
		Kind: Licenses, Table: "driver_licenses", Section: 5,
		Fields: []Field{text("license_number", "license number"), text("issuing_state", "issuing state")},
	},
	Relatives: {
		Kind: Relatives, Table: "us_relatives", Section: 7,
		Fields: []Field{
			text("name", "relative name"),
			text("relation", "relationship"),
			text("immigration_status", "immigration status"),
		},
	},
	Jobs: {
		Kind: Jobs, Table: "previous_jobs", Section: 8,
		Fields: []Field{
			text("employer", "employer"),
			text("address", "employer address"),
			text("role", "job title"),
			date("start_date", "start date"),
			date("end_date", "end date"),
			text("supervisor", "supervisor"),
		},
	},
	Courses: {
		Kind: Courses, Table: "courses", Section: 8,
		Fields: []Field{
			text("institution", "institution"),
			text("address", "institution address"),
			text("course_name", "course"),
			date("start_date", "start date"),
			date("end_date", "end date"),
		},
	},
}

// CollectionKinds lists the kinds in wizard order.
func CollectionKinds() []CollectionKind {
	return []CollectionKind{Companions, Trips, Licenses, Relatives, Jobs, Courses}
}

// CollectionFor looks up a kind.
func CollectionFor(kind CollectionKind) (Collection, bool) {
	c, ok := collections[kind]
	return c, ok
}

// ParseCollectionKind accepts the path segment used by the HTTP API.
func ParseCollectionKind(s string) (CollectionKind, error) {
	if _, ok := collections[CollectionKind(s)]; !ok {
		return "", fmt.Errorf("unknown collection %q", s)
	}
	return CollectionKind(s), nil
}

// Blank returns item values with every field empty.
func (c Collection) Blank() Values {
	v := make(Values, len(c.Fields))
	for _, f := range c.Fields {
		if f.Kind == KindText {
			v[f.Key] = ""
		} else {
			v[f.Key] = nil
		}
	}
	return v
}

// Columns returns the item field keys in declaration order.
func (c Collection) Columns() []string {
	cols := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		cols[i] = f.Key
	}
	return cols
}

func (c Collection) Field(key string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
