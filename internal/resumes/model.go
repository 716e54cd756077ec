package resumes

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Year         string `json:"year"`
	Score        string `json:"score"`
}

type WorkExperience struct {
	Employer    string `json:"employer"`
	Title       string `json:"title"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// StructuredResume is the canonical extracted resume. List fields are never
// null on the wire; a decoded value always carries empty slices instead.
type StructuredResume struct {
	CandidateName   string           `json:"candidateName" validate:"required"`
	Location        string           `json:"location"`
	ContactDetails  []string         `json:"contactDetails"`
	Links           []string         `json:"links"`
	CareerObjective string           `json:"careerObjective"`
	Skills          []string         `json:"skills"`
	Education       []Education      `json:"education"`
	WorkExperience  []WorkExperience `json:"workExperience"`
	Internships     []string         `json:"internships"`
	Projects        []Project        `json:"projects"`
	Certifications  []string         `json:"certifications"`
}

type resumeJSON StructuredResume

// Normalize returns a copy with every nil list replaced by an empty one. List
// entries with no content at all are dropped; partial entries are kept.
func (r StructuredResume) Normalize() StructuredResume {
	out := r
	out.CandidateName = strings.TrimSpace(r.CandidateName)
	out.ContactDetails = strs(r.ContactDetails)
	out.Links = strs(r.Links)
	out.Skills = strs(r.Skills)
	out.Internships = strs(r.Internships)
	out.Certifications = strs(r.Certifications)
	out.Education = make([]Education, 0, len(r.Education))
	for _, e := range r.Education {
		if !blank(e.Institution, e.Degree, e.FieldOfStudy, e.Year, e.Score) {
			out.Education = append(out.Education, e)
		}
	}
	out.WorkExperience = make([]WorkExperience, 0, len(r.WorkExperience))
	for _, w := range r.WorkExperience {
		if !blank(w.Employer, w.Title, w.Period, w.Description) {
			out.WorkExperience = append(out.WorkExperience, w)
		}
	}
	out.Projects = make([]Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		p.Technologies = strs(p.Technologies)
		if blank(p.Name, p.Description) && blank(p.Technologies...) {
			continue
		}
		out.Projects = append(out.Projects, p)
	}
	return out
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func strs(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}

func (r StructuredResume) MarshalJSON() ([]byte, error) {
	return json.Marshal(resumeJSON(r.Normalize()))
}

func (r *StructuredResume) UnmarshalJSON(data []byte) error {
	var decoded resumeJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = StructuredResume(decoded).Normalize()
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrInvalidResume is wrapped by Validate failures.
var ErrInvalidResume = errors.New("invalid resume")

// Validate checks required fields. Only candidateName is required.
func (r StructuredResume) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.TrimPrefix(fe.Namespace(), "StructuredResume.")+" "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidResume, strings.Join(fields, ", "))
}

// Record is the persisted wrapper, one per user.
type Record struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	Resume    StructuredResume `json:"resume"`
	SourceKey string           `json:"-"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// HasSource reports whether the original upload was archived.
func (r Record) HasSource() bool {
	return r.SourceKey != ""
}
