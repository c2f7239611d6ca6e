package synth

import "resumecoach/internal/session"

const classicSkeleton = `[Full Name]
[Phone Number] | [Email Address] | [LinkedIn URL]

PROFESSIONAL SUMMARY
[One or two sentences summarizing your experience and skills.]

SKILLS
- Technical Skills: [List, e.g., Python, React, AWS, etc.]
- Soft Skills: [List, e.g., Communication, Teamwork, etc.]

EXPERIENCE
[Job Title] | [Company Name] | [City, State] | [Start Date] – [End Date or Present]
- [Accomplishment-driven bullet point.]
- [Quantifiable achievement, e.g., "Increased X by Y%".]

[Job Title] | [Company Name] | [City, State] | [Start Date] – [End Date]
- [Accomplishment-driven bullet point.]

PROJECTS
[Project Name] | [Link to GitHub/Live Demo]
- [Bullet point describing the project and its purpose.]
- [Bullet point describing your role and technologies used.]

EDUCATION
[Degree, e.g., B.S. Computer Science] | [University Name] | [Graduation Date]
`

const modernSkeleton = `[Full Name]
[City, State, Zip Code] | [Phone Number] | [Email Address] | [LinkedIn URL]

---
PROFESSIONAL SUMMARY
[A 3-4 line summary highlighting your key achievements and skills,
tailored to the job description.]

---
CORE COMPETENCIES
- Skill 1: [Brief detail]
- Skill 2: [Brief detail]
- Skill 3: [Brief detail]
- Skill 4: [Brief detail]
- Skill 5: [Brief detail]
- Skill 6: [Brief detail]

---
PROFESSIONAL EXPERIENCE

[Company Name] | [City, State]
[Job Title] | [Start Date] – [End Date or Present]
- [Accomplishment-driven bullet point. Use a strong action verb.]
- [Quantifiable achievement, e.g., "Increased X by Y%".]
- [Another key responsibility or achievement.]

[Company Name] | [City, State]
[Job Title] | [Start Date] – [End Date]
- [Accomplishment-driven bullet point.]
- [Quantifiable achievement.]

---
PROJECTS

[Project Name] | [Technologies Used]
- [Bullet point describing the project and its purpose/outcome.]
- [Bullet point describing your specific contribution.]

---
EDUCATION

[University Name] | [City, State]
[Degree, e.g., B.S. Computer Science] | [Graduation Date]
`

const skillsFirstSkeleton = `[Full Name]
[Phone Number] | [Email Address] | [LinkedIn URL]

PROFESSIONAL SUMMARY
[A 2-3 line summary focused on your skills and career goals.]

---
TECHNICAL SKILLS

- Programming Languages: [List]
- Frameworks/Libraries: [List]
- Databases: [List]
- Cloud/DevOps: [List]

---
RELEVANT EXPERIENCE & PROJECTS

[Skill Category 1, e.g., "AI/Machine Learning"]
- [Project or Experience bullet point demonstrating this skill.]
- [Project or Experience bullet point demonstrating this skill.]

[Skill Category 2, e.g., "Web Development"]
- [Project or Experience bullet point demonstrating this skill.]
- [Project or Experience bullet point demonstrating this skill.]

[Skill Category 3, e.g., "Data Analysis"]
- [Project or Experience bullet point demonstrating this skill.]

---
WORK HISTORY (Chronological)

[Job Title] | [Company Name] | [Start Date] – [End Date or Present]
[Job Title] | [Company Name] | [Start Date] – [End Date]

---
EDUCATION
[Degree, e.g., B.S. Computer Science] | [University Name] | [Graduation Date]
`

// Skeleton returns the layout the engine is asked to follow for t. Unknown
// templates fall back to the classic layout.
func Skeleton(t session.Template) string {
	switch t {
	case session.TemplateModern:
		return modernSkeleton
	case session.TemplateSkillsFirst:
		return skillsFirstSkeleton
	default:
		return classicSkeleton
	}
}

// TemplateInfo describes a template for listings.
type TemplateInfo struct {
	Name     session.Template `json:"name" yaml:"name"`
	Label    string           `json:"label" yaml:"label"`
	Skeleton string           `json:"skeleton,omitempty" yaml:"skeleton,omitempty"`
}

// Catalog lists every template with its label. Skeletons are included when
// withSkeleton is set.
func Catalog(withSkeleton bool) []TemplateInfo {
	var infos []TemplateInfo
	for _, t := range session.Templates() {
		info := TemplateInfo{Name: t, Label: t.Label()}
		if withSkeleton {
			info.Skeleton = Skeleton(t)
		}
		infos = append(infos, info)
	}
	return infos
}
