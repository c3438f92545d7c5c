package service

import (
	"sort"
	"strings"

	"github.com/caregraph/caregraph/pkg/model"
)

// departmentDiseases maps each department category to the diseases it treats.
// A disease can map to several departments; resolution fans out to all of
// them. Labels match the prediction service's output verbatim so predicted
// diseases resolve without translation.
var departmentDiseases = map[model.DepartmentCategory][]string{
	model.Cardiology: {
		"Hypertension", "Heart attack", "Paralysis (brain hemorrhage)",
		"Varicose veins", "AIDS", "Alcoholic hepatitis",
	},
	model.Dermatology: {
		"Fungal infection", "Allergy", "Drug Reaction", "Chicken pox",
		"Acne", "Psoriasis", "Impetigo",
	},
	model.Endocrinology: {
		"Diabetes", "Hypothyroidism", "Hyperthyroidism", "Hypoglycemia",
	},
	model.Gastroenterology: {
		"GERD", "Chronic cholestasis", "Peptic ulcer disease",
		"Gastroenteritis", "Jaundice", "Hepatitis A", "Hepatitis B",
		"Hepatitis C", "Hepatitis D", "Hepatitis E",
	},
	model.Neurology: {
		"Migraine", "Cervical spondylosis", "Paralysis (brain hemorrhage)",
		"Vertigo (Benign Paroxysmal Positional Vertigo)",
	},
	model.Oncology: {
		"AIDS", "Alcoholic hepatitis",
	},
	model.Pediatrics: {
		"Chicken pox", "Dengue", "Typhoid", "Common Cold",
	},
	model.Surgery: {
		"Dimorphic hemorrhoids (piles)", "Osteoarthritis", "Arthritis",
		"Tuberculosis", "Urinary tract infection",
	},
}

// DiseaseResolver maps disease names to the department categories that treat
// them. Matching is case-insensitive on the trimmed disease name.
type DiseaseResolver struct {
	byDisease map[string][]model.DepartmentCategory
}

// NewDiseaseResolver builds the reverse index from the department table.
func NewDiseaseResolver() *DiseaseResolver {
	idx := make(map[string][]model.DepartmentCategory)
	for cat, diseases := range departmentDiseases {
		for _, d := range diseases {
			key := normalizeDisease(d)
			idx[key] = append(idx[key], cat)
		}
	}
	for _, cats := range idx {
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	}
	return &DiseaseResolver{byDisease: idx}
}

func normalizeDisease(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the department categories treating the disease, sorted
// alphabetically. Unknown diseases resolve to an empty slice.
func (r *DiseaseResolver) Resolve(disease string) []model.DepartmentCategory {
	cats := r.byDisease[normalizeDisease(disease)]
	out := make([]model.DepartmentCategory, len(cats))
	copy(out, cats)
	return out
}

// Known reports whether the resolver has any mapping for the disease.
func (r *DiseaseResolver) Known(disease string) bool {
	_, ok := r.byDisease[normalizeDisease(disease)]
	return ok
}
