package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
	"go.uber.org/zap"
)

// ErrNoFacilityInRange is returned when the search radius contains no
// hospital hosting a matching department, either because no hospital address
// lies within it at all or because none of the in-range hospitals matches.
var ErrNoFacilityInRange = errors.New("no facility with a matching department in range")

// Facility is one located hospital with its matching departments, ordered by
// distance from the search origin. Departments carry their doctor
// projections populated.
type Facility struct {
	Hospital       model.Hospital   `json:"hospital"`
	Address        model.Address    `json:"address"`
	DistanceMeters float64          `json:"distance_meters"`
	Departments    []DepartmentView `json:"departments"`
}

// FacilityLocator finds hospitals near a point that host departments from a
// given category set.
type FacilityLocator struct {
	store         store.Store
	defaultRadius float64
	logger        *zap.Logger
}

// NewFacilityLocator creates a FacilityLocator. defaultRadiusMeters is used
// when a search passes a non-positive radius.
func NewFacilityLocator(st store.Store, defaultRadiusMeters float64, logger *zap.Logger) *FacilityLocator {
	if defaultRadiusMeters <= 0 {
		defaultRadiusMeters = 10000
	}
	return &FacilityLocator{store: st, defaultRadius: defaultRadiusMeters, logger: logger}
}

// FindNearby returns hospitals within radiusMeters of origin that host at
// least one department whose name is in categories, closest first. An empty
// category set matches nothing. A radius holding no matching facility,
// whether empty of hospitals or merely of matching departments, is
// ErrNoFacilityInRange.
func (l *FacilityLocator) FindNearby(ctx context.Context, origin model.GeoPoint, radiusMeters float64, categories []model.DepartmentCategory) ([]Facility, error) {
	if origin.Lat < -90 || origin.Lat > 90 || origin.Lon < -180 || origin.Lon > 180 {
		return nil, validationf("coordinates out of range: lat=%v lon=%v", origin.Lat, origin.Lon)
	}
	if radiusMeters <= 0 {
		radiusMeters = l.defaultRadius
	}
	if len(categories) == 0 {
		return []Facility{}, nil
	}

	addrs, err := l.store.NearbyHospitalAddresses(ctx, origin, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	facilities := make([]Facility, 0, len(addrs))
	for _, addr := range addrs {
		hosp, err := l.store.GetHospital(ctx, addr.HospitalID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load hospital %s: %w", addr.HospitalID, err)
		}
		depts, err := l.store.FindDepartments(ctx, []string{hosp.ID}, categories)
		if err != nil {
			return nil, fmt.Errorf("match departments: %w", err)
		}
		if len(depts) == 0 {
			continue
		}
		views := make([]DepartmentView, 0, len(depts))
		for _, d := range depts {
			dv, err := departmentView(ctx, l.store, d)
			if err != nil {
				return nil, fmt.Errorf("populate department %s: %w", d.ID, err)
			}
			views = append(views, dv)
		}
		facilities = append(facilities, Facility{
			Hospital:       *hosp,
			Address:        addr,
			DistanceMeters: store.HaversineMeters(origin, *addr.Location),
			Departments:    views,
		})
	}
	if len(facilities) == 0 {
		return nil, ErrNoFacilityInRange
	}

	l.logger.Debug("facilities located",
		zap.Float64("radius_meters", radiusMeters),
		zap.Int("matches", len(facilities)),
	)
	return facilities, nil
}

// RecommendationService combines disease resolution with the facility
// locator: given a diagnosed disease and the patient's position, it points at
// nearby hospitals hosting the departments that treat it.
type RecommendationService struct {
	resolver *DiseaseResolver
	locator  *FacilityLocator
	logger   *zap.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(resolver *DiseaseResolver, locator *FacilityLocator, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{resolver: resolver, locator: locator, logger: logger}
}

// Recommendation is the answer to "where should this disease be treated".
type Recommendation struct {
	Disease     string                     `json:"disease"`
	Departments []model.DepartmentCategory `json:"departments"`
	Facilities  []Facility                 `json:"facilities"`
}

// Recommend resolves the disease to departments and locates facilities around
// origin. Unknown diseases are NotFound; a disease with no facility in range
// surfaces ErrNoFacilityInRange from the locator.
func (s *RecommendationService) Recommend(ctx context.Context, disease string, origin model.GeoPoint, radiusMeters float64) (*Recommendation, error) {
	if !s.resolver.Known(disease) {
		return nil, notFound("disease mapping", disease)
	}
	cats := s.resolver.Resolve(disease)
	facilities, err := s.locator.FindNearby(ctx, origin, radiusMeters, cats)
	if err != nil {
		return nil, err
	}
	return &Recommendation{
		Disease:     disease,
		Departments: cats,
		Facilities:  facilities,
	}, nil
}
