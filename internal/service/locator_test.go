package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
)

// putFacility seeds a hospital with a located address and the given
// departments straight into the store, bypassing the coordinator.
func putFacility(t *testing.T, st store.Store, name string, loc model.GeoPoint, categories ...model.DepartmentCategory) *model.Hospital {
	t.Helper()
	ctx := context.Background()

	h := &model.Hospital{
		ID:   "hosp-" + name,
		Name: name,
		Type: model.HospitalPrivate,
		Contact: model.Contact{
			Phone: "5550001111", Email: "info@" + name + ".test",
		},
		AddressID: "addr-" + name,
	}
	addr := &model.Address{
		ID:         h.AddressID,
		Street:     "1 " + name + " St",
		City:       "Testville",
		State:      "TS",
		Country:    "USA",
		PostalCode: "12345",
		Location:   &loc,
		HospitalID: h.ID,
	}
	require.NoError(t, st.PutAddress(ctx, addr))
	for _, cat := range categories {
		dept := &model.Department{
			ID:         "dept-" + name + "-" + string(cat),
			Name:       cat,
			HospitalID: h.ID,
			DoctorIDs:  []string{},
		}
		h.DepartmentIDs = append(h.DepartmentIDs, dept.ID)
		require.NoError(t, st.PutDepartment(ctx, dept))
	}
	require.NoError(t, st.PutHospital(ctx, h))
	return h
}

func newTestLocator(st store.Store) *FacilityLocator {
	return NewFacilityLocator(st, 10000, testLogger())
}

func TestFindNearby_OrdersByDistance(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	// Roughly 11km, 22km, and 33km north of the origin.
	far := putFacility(t, st, "far", model.GeoPoint{Lon: 0, Lat: 0.3}, model.Cardiology)
	near := putFacility(t, st, "near", model.GeoPoint{Lon: 0, Lat: 0.1}, model.Cardiology)
	mid := putFacility(t, st, "mid", model.GeoPoint{Lon: 0, Lat: 0.2}, model.Cardiology)

	got, err := newTestLocator(st).FindNearby(ctx, origin, 50000, []model.DepartmentCategory{model.Cardiology})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, near.ID, got[0].Hospital.ID)
	assert.Equal(t, mid.ID, got[1].Hospital.ID)
	assert.Equal(t, far.ID, got[2].Hospital.ID)
	assert.Less(t, got[0].DistanceMeters, got[1].DistanceMeters)
	assert.Less(t, got[1].DistanceMeters, got[2].DistanceMeters)
}

func TestFindNearby_RadiusBoundaryIsInclusive(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	loc := model.GeoPoint{Lon: 0, Lat: 0.1}
	putFacility(t, st, "edge", loc, model.Surgery)

	exact := store.HaversineMeters(origin, loc)

	got, err := newTestLocator(st).FindNearby(ctx, origin, exact, []model.DepartmentCategory{model.Surgery})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.InDelta(t, exact, got[0].DistanceMeters, 1e-6)

	// Shrinking the radius below the distance leaves nothing in range.
	_, err = newTestLocator(st).FindNearby(ctx, origin, exact-1, []model.DepartmentCategory{model.Surgery})
	require.ErrorIs(t, err, ErrNoFacilityInRange)
}

func TestFindNearby_EmptyCategorySetMatchesNothing(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	origin := model.GeoPoint{Lon: 0, Lat: 0}
	putFacility(t, st, "near", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Cardiology)

	got, err := newTestLocator(st).FindNearby(ctx, origin, 10000, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindNearby_NoFacilityInRange(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	origin := model.GeoPoint{Lon: 0, Lat: 0}
	cats := []model.DepartmentCategory{model.Cardiology}

	// No hospital address within the radius at all.
	_, err := newTestLocator(st).FindNearby(ctx, origin, 10000, cats)
	require.ErrorIs(t, err, ErrNoFacilityInRange)

	// Hospitals in range, but none hosting a matching department.
	putFacility(t, st, "derm-only", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Dermatology)
	_, err = newTestLocator(st).FindNearby(ctx, origin, 10000, cats)
	require.ErrorIs(t, err, ErrNoFacilityInRange)
}

func TestFindNearby_CoordinateBounds(t *testing.T) {
	st := store.NewMemory()
	loc := newTestLocator(st)
	cats := []model.DepartmentCategory{model.Cardiology}

	for _, origin := range []model.GeoPoint{
		{Lon: 0, Lat: 91},
		{Lon: 0, Lat: -91},
		{Lon: 181, Lat: 0},
		{Lon: -181, Lat: 0},
	} {
		_, err := loc.FindNearby(context.Background(), origin, 10000, cats)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr, "origin %+v", origin)
	}
}

func TestFindNearby_NonPositiveRadiusUsesDefault(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	// About 5.5km out, inside the 10km default.
	putFacility(t, st, "close", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Neurology)

	got, err := newTestLocator(st).FindNearby(ctx, origin, 0, []model.DepartmentCategory{model.Neurology})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindNearby_MatchingDepartmentsOnly(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	putFacility(t, st, "multi", model.GeoPoint{Lon: 0, Lat: 0.05},
		model.Cardiology, model.Dermatology, model.Oncology)

	got, err := newTestLocator(st).FindNearby(ctx, origin, 10000,
		[]model.DepartmentCategory{model.Cardiology, model.Oncology})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Departments, 2)
	for _, d := range got[0].Departments {
		assert.NotEqual(t, model.Dermatology, d.Department.Name)
	}
}

func TestFindNearby_PopulatesDoctorProjections(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, st.PutUser(ctx, &model.User{
		ID: "u-house", FullName: "Greg House", Email: "house@ppth.test",
		Phone: "1999999999", Role: model.RoleDoctor,
	}))
	require.NoError(t, st.PutDoctor(ctx, &model.Doctor{
		ID: "doc-house", UserID: "u-house",
		Specialization: model.Cardiology, MedicalLicense: "LIC-house",
	}))

	putFacility(t, st, "ppth", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Cardiology)
	dept, err := st.GetDepartment(ctx, "dept-ppth-cardiology")
	require.NoError(t, err)
	dept.HeadDoctorID = "doc-house"
	dept.DoctorIDs = []string{"doc-house"}
	require.NoError(t, st.PutDepartment(ctx, dept))

	got, err := newTestLocator(st).FindNearby(ctx, model.GeoPoint{Lon: 0, Lat: 0}, 10000,
		[]model.DepartmentCategory{model.Cardiology})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Departments, 1)

	dv := got[0].Departments[0]
	require.NotNil(t, dv.HeadDoctor)
	assert.Equal(t, "Greg House", dv.HeadDoctor.FullName)
	assert.Equal(t, "house@ppth.test", dv.HeadDoctor.Email)
	assert.Equal(t, model.Cardiology, dv.HeadDoctor.Specialization)
	require.Len(t, dv.Doctors, 1)
	assert.Equal(t, "doc-house", dv.Doctors[0].ID)
	assert.Equal(t, "Greg House", dv.Doctors[0].FullName)
}

func TestRecommend_ResolvesAndLocates(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	putFacility(t, st, "onco", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Oncology)

	svc := NewRecommendationService(NewDiseaseResolver(), newTestLocator(st), testLogger())

	rec, err := svc.Recommend(ctx, "AIDS", origin, 10000)
	require.NoError(t, err)
	assert.Equal(t, []model.DepartmentCategory{model.Cardiology, model.Oncology}, rec.Departments)
	require.Len(t, rec.Facilities, 1)
	assert.Equal(t, "onco", rec.Facilities[0].Hospital.Name)
}

func TestRecommend_UnknownDiseaseIsNotFound(t *testing.T) {
	st := store.NewMemory()
	svc := NewRecommendationService(NewDiseaseResolver(), newTestLocator(st), testLogger())

	_, err := svc.Recommend(context.Background(), "lycanthropy", model.GeoPoint{}, 10000)
	assert.True(t, IsNotFound(err))
}

func TestRecommend_NoFacilityInRangePropagates(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	origin := model.GeoPoint{Lon: 0, Lat: 0}
	putFacility(t, st, "derm", model.GeoPoint{Lon: 0, Lat: 0.05}, model.Dermatology)

	svc := NewRecommendationService(NewDiseaseResolver(), newTestLocator(st), testLogger())
	_, err := svc.Recommend(ctx, "Diabetes", origin, 10000)
	require.ErrorIs(t, err, ErrNoFacilityInRange)
}
