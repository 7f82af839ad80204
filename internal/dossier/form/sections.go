package form

import "fmt"

// SectionCount is the number of wizard sections, indexed 0..SectionCount-1.
const SectionCount = 10

// Section is one independently saved and submitted group of scalar fields.
type Section struct {
	Index       int
	Name        string
	Title       string
	Fields      []Field
	Collections []CollectionKind
}

func text(key, label string) Field { return Field{Key: key, Label: label, Kind: KindText} }
func date(key, label string) Field { return Field{Key: key, Label: label, Kind: KindDate} }
func yesNo(key, label string) Field {
	return Field{Key: key, Label: label, Kind: KindBool, Required: true}
}
func required(f Field) Field          { f.Required = true; return f }
func when(gate string, f Field) Field { f.RequiredWhen = gate; return f }

// Fields are ordered as the wizard shows them; the gate reports the first
// violation in this order, and conditional fields follow their gate.
var sections = [SectionCount]Section{
	{
		Index: 0, Name: "personal", Title: "Personal data",
		Fields: []Field{
			required(text("full_name", "full name")),
			yesNo("other_names_used", "other names used"),
			when("other_names_used", text("other_names", "other names")),
			required(text("sex", "sex")),
			required(text("marital_status", "marital status")),
			required(date("birth_date", "date of birth")),
			required(text("birth_city", "city of birth")),
			text("birth_state", "state of birth"),
			required(text("birth_country", "country of birth")),
			yesNo("other_nationality", "other nationality"),
			when("other_nationality", text("other_nationality_country", "other nationality country")),
			required(text("national_id_number", "national identification number")),
			text("us_ssn", "U.S. social security number"),
		},
	},
	{
		Index: 1, Name: "address", Title: "Address and contact",
		Fields: []Field{
			required(text("home_address", "home address")),
			required(text("home_city", "home city")),
			required(text("home_state", "home state")),
			required(text("home_postal_code", "postal code")),
			required(text("home_country", "home country")),
			yesNo("different_mailing_address", "different mailing address"),
			when("different_mailing_address", text("mailing_address", "mailing address")),
			required(text("primary_phone", "primary phone")),
			text("secondary_phone", "secondary phone"),
			text("work_phone", "work phone"),
			required(text("contact_email", "e-mail")),
			text("social_media", "social media"),
		},
	},
	{
		Index: 2, Name: "passport", Title: "Passport",
		Fields: []Field{
			required(text("passport_type", "passport type")),
			required(text("passport_number", "passport number")),
			text("passport_book_number", "passport book number"),
			required(text("passport_issuing_country", "issuing country")),
			required(text("passport_issue_city", "city of issue")),
			required(date("passport_issue_date", "issue date")),
			required(date("passport_expiration_date", "expiration date")),
			yesNo("passport_lost", "lost or stolen passport"),
			when("passport_lost", text("lost_passport_number", "lost passport number")),
			when("passport_lost", text("lost_passport_country", "lost passport issuing country")),
			when("passport_lost", text("lost_passport_explanation", "lost passport explanation")),
		},
	},
	{
		Index: 3, Name: "travel", Title: "Travel plan",
		Fields: []Field{
			required(text("trip_purpose", "purpose of trip")),
			yesNo("has_travel_plans", "specific travel plans"),
			when("has_travel_plans", date("planned_arrival_date", "planned arrival date")),
			when("has_travel_plans", date("planned_departure_date", "planned departure date")),
			when("has_travel_plans", text("arrival_city", "arrival city")),
			required(text("intended_stay", "intended length of stay")),
			required(text("us_stay_address", "address in the U.S.")),
			required(text("trip_payer", "person paying for the trip")),
			text("trip_payer_name", "payer name"),
		},
	},
	{
		Index: 4, Name: "company", Title: "Travel company",
		Fields: []Field{
			yesNo("traveling_with_others", "traveling with other people"),
			yesNo("traveling_as_group", "traveling as part of a group"),
			when("traveling_as_group", text("group_name", "group name")),
		},
		Collections: []CollectionKind{Companions},
	},
	{
		Index: 5, Name: "previous_travel", Title: "Previous U.S. travel",
		Fields: []Field{
			yesNo("been_in_us", "been in the U.S."),
			yesNo("had_us_license", "held a U.S. driver's license"),
			yesNo("had_us_visa", "held a U.S. visa"),
			when("had_us_visa", date("last_visa_issue_date", "last visa issue date")),
			when("had_us_visa", text("last_visa_number", "last visa number")),
			yesNo("visa_refused", "visa refused"),
			when("visa_refused", text("visa_refused_explanation", "visa refusal explanation")),
			yesNo("immigrant_petition", "immigrant petition filed"),
			when("immigrant_petition", text("immigrant_petition_explanation", "immigrant petition explanation")),
		},
		Collections: []CollectionKind{Trips, Licenses},
	},
	{
		Index: 6, Name: "us_contact", Title: "U.S. contact",
		Fields: []Field{
			required(text("us_contact_name", "contact name")),
			text("us_contact_organization", "contact organization"),
			required(text("us_contact_relation", "relationship to contact")),
			required(text("us_contact_address", "contact address")),
			required(text("us_contact_phone", "contact phone")),
			text("us_contact_email", "contact e-mail"),
		},
	},
	{
		Index: 7, Name: "family", Title: "Family",
		Fields: []Field{
			required(text("father_name", "father's name")),
			date("father_birth_date", "father's date of birth"),
			yesNo("father_in_us", "father in the U.S."),
			when("father_in_us", text("father_us_status", "father's U.S. status")),
			required(text("mother_name", "mother's name")),
			date("mother_birth_date", "mother's date of birth"),
			yesNo("mother_in_us", "mother in the U.S."),
			when("mother_in_us", text("mother_us_status", "mother's U.S. status")),
			yesNo("has_spouse", "spouse"),
			when("has_spouse", text("spouse_name", "spouse's name")),
			when("has_spouse", date("spouse_birth_date", "spouse's date of birth")),
			when("has_spouse", text("spouse_nationality", "spouse's nationality")),
			yesNo("has_us_relatives", "immediate relatives in the U.S."),
		},
		Collections: []CollectionKind{Relatives},
	},
	{
		Index: 8, Name: "work_education", Title: "Work and education",
		Fields: []Field{
			required(text("occupation", "primary occupation")),
			text("current_employer", "current employer or school"),
			text("current_employer_address", "employer or school address"),
			text("current_employer_phone", "employer or school phone"),
			date("current_job_start_date", "start date"),
			text("monthly_income", "monthly income"),
			text("job_duties", "duties"),
			yesNo("previously_employed", "previously employed"),
			yesNo("attended_higher_education", "attended secondary or higher education"),
			required(text("languages", "languages spoken")),
			yesNo("military_service", "military service"),
			when("military_service", text("military_service_details", "military service details")),
		},
		Collections: []CollectionKind{Jobs, Courses},
	},
	{
		Index: 9, Name: "security", Title: "Security",
		Fields: []Field{
			yesNo("communicable_disease", "communicable disease"),
			when("communicable_disease", text("communicable_disease_explanation", "communicable disease explanation")),
			yesNo("criminal_record", "arrest or conviction"),
			when("criminal_record", text("criminal_record_explanation", "arrest or conviction explanation")),
			yesNo("drug_violation", "controlled substance violation"),
			when("drug_violation", text("drug_violation_explanation", "controlled substance explanation")),
			yesNo("terrorism", "terrorist activity"),
			when("terrorism", text("terrorism_explanation", "terrorist activity explanation")),
			yesNo("immigration_fraud", "visa fraud or misrepresentation"),
			when("immigration_fraud", text("immigration_fraud_explanation", "visa fraud explanation")),
			yesNo("deported", "removal or deportation"),
			when("deported", text("deported_explanation", "removal explanation")),
		},
	},
}

// Sections returns the registry in index order.
func Sections() []Section {
	out := make([]Section, SectionCount)
	copy(out, sections[:])
	return out
}

// SectionAt returns the section with the given index.
func SectionAt(index int) (Section, bool) {
	if index < 0 || index >= SectionCount {
		return Section{}, false
	}
	return sections[index], true
}

// Field returns the section field with the given key.
func (s Section) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Label is the "<index> <title>" string used in messages.
func (s Section) Label() string {
	return fmt.Sprintf("section %d (%s)", s.Index, s.Title)
}

// AllFields returns every section field in section order. Keys are unique
// across sections, so the result maps one-to-one onto application columns.
func AllFields() []Field {
	var out []Field
	for _, s := range sections {
		out = append(out, s.Fields...)
	}
	return out
}
