package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caregraph/caregraph/pkg/model"
)

func TestHospitalCreate_WiresDepartmentsAndAffiliations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc1 := registerTestDoctor(t, f.doctors, "u-doc1")
	doc2 := registerTestDoctor(t, f.doctors, "u-doc2")

	hospital, err := f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name:    "Princeton General",
		Type:    "private",
		Contact: validContact(),
		Address: validAddressInput(),
		Departments: []DepartmentInput{
			{Name: "Cardiology", HeadDoctorID: doc1.ID},
			{Name: "surgery", HeadDoctorID: doc2.ID, DoctorIDs: []string{doc1.ID}},
		},
	})
	require.NoError(t, err)

	// Doctor set is the union across departments, first-seen order.
	assert.Equal(t, []string{doc1.ID, doc2.ID}, hospital.DoctorIDs)
	require.Len(t, hospital.DepartmentIDs, 2)

	depts, err := f.store.ListDepartmentsByHospital(ctx, hospital.ID)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, model.Cardiology, depts[0].Name)
	assert.Equal(t, doc1.ID, depts[0].HeadDoctorID)
	// Head is always a member of the department's doctor set.
	assert.Contains(t, depts[0].DoctorIDs, doc1.ID)
	assert.Equal(t, model.Surgery, depts[1].Name)
	assert.Equal(t, []string{doc2.ID, doc1.ID}, depts[1].DoctorIDs)

	addr, err := f.store.GetAddress(ctx, hospital.AddressID)
	require.NoError(t, err)
	assert.Equal(t, hospital.ID, addr.HospitalID)

	for _, id := range []string{doc1.ID, doc2.ID} {
		doc, err := f.store.GetDoctor(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, hospital.Name, doc.HospitalAffiliation)
	}
}

func TestHospitalCreate_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.hospitals.Create(context.Background(), doctorActor("u-doc1"), CreateHospitalInput{
		Name: "Rogue Clinic", Type: "clinic", Contact: validContact(),
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestHospitalCreate_DuplicateNameConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name: "Princeton General", Type: "private", Contact: validContact(),
	})
	require.NoError(t, err)

	_, err = f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name: "Princeton General", Type: "clinic", Contact: validContact(),
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// Name matching is case-insensitive.
	_, err = f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name: "princeton GENERAL", Type: "clinic", Contact: validContact(),
	})
	require.ErrorAs(t, err, &conflict)
}

func TestHospitalCreate_ConcurrentSameNameSerializes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 4
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
				Name: "Atomic General", Type: "private", Contact: validContact(),
			})
			if err == nil {
				successes.Add(1)
				return
			}
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), conflicts.Load())
	hospitals, err := f.store.ListHospitals(ctx)
	require.NoError(t, err)
	assert.Len(t, hospitals, 1)
}

func TestHospitalCreate_DepartmentPayloadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc1 := registerTestDoctor(t, f.doctors, "u-doc1")

	testCases := []struct {
		name        string
		departments []DepartmentInput
		wantErr     any
	}{
		{
			name:        "unknown category",
			departments: []DepartmentInput{{Name: "astrology", HeadDoctorID: doc1.ID}},
			wantErr:     new(*ValidationError),
		},
		{
			name: "duplicate normalized name",
			departments: []DepartmentInput{
				{Name: "Cardiology", HeadDoctorID: doc1.ID},
				{Name: "cardiology", HeadDoctorID: "someone-else"},
			},
			wantErr: new(*ConflictError),
		},
		{
			name:        "missing head doctor",
			departments: []DepartmentInput{{Name: "surgery"}},
			wantErr:     new(*ValidationError),
		},
		{
			name: "doctor heading two departments",
			departments: []DepartmentInput{
				{Name: "cardiology", HeadDoctorID: doc1.ID},
				{Name: "surgery", HeadDoctorID: doc1.ID},
			},
			wantErr: new(*ConflictError),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
				Name:        "Hospital " + tc.name,
				Type:        "private",
				Contact:     validContact(),
				Departments: tc.departments,
			})
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.wantErr)
		})
	}
}

func TestHospitalCreate_MissingDoctorRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc1 := registerTestDoctor(t, f.doctors, "u-doc1")

	_, err := f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name:    "Phantom Hospital",
		Type:    "private",
		Contact: validContact(),
		Address: validAddressInput(),
		Departments: []DepartmentInput{
			{Name: "cardiology", HeadDoctorID: doc1.ID, DoctorIDs: []string{"no-such-doctor"}},
		},
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// Nothing of the aborted cascade survives.
	_, err = f.store.GetHospitalByName(ctx, "Phantom Hospital")
	require.Error(t, err)
	hospitals, err := f.store.ListHospitals(ctx)
	require.NoError(t, err)
	assert.Empty(t, hospitals)

	doc, err := f.store.GetDoctor(ctx, doc1.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.HospitalAffiliation)
}

func TestHospitalUpdate_ReplacesDepartmentSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, doc1, doc2, _, _ := buildHospitalGraph(t, f)

	updated, err := f.hospitals.Update(ctx, adminActor, hospital.ID, UpdateHospitalInput{
		Departments: []DepartmentInput{
			{Name: "neurology", HeadDoctorID: doc2.ID},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{doc2.ID}, updated.DoctorIDs)
	depts, err := f.store.ListDepartmentsByHospital(ctx, hospital.ID)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Equal(t, model.Neurology, depts[0].Name)

	// The old cardiology department is gone.
	for _, d := range depts {
		assert.NotEqual(t, model.Cardiology, d.Name)
	}

	// doc1 dropped out of the union, so its cached affiliation is cleared;
	// doc2 stays affiliated.
	d1, err := f.store.GetDoctor(ctx, doc1.ID)
	require.NoError(t, err)
	assert.Empty(t, d1.HospitalAffiliation)
	d2, err := f.store.GetDoctor(ctx, doc2.ID)
	require.NoError(t, err)
	assert.Equal(t, hospital.Name, d2.HospitalAffiliation)
}

func TestHospitalUpdate_ContactOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, _, _, _, _ := buildHospitalGraph(t, f)

	newContact := model.Contact{Phone: "5552223333", Email: "front@desk.test"}
	updated, err := f.hospitals.Update(ctx, adminActor, hospital.ID, UpdateHospitalInput{
		Contact: &newContact,
	})
	require.NoError(t, err)
	assert.Equal(t, newContact, updated.Contact)
	// Departments untouched.
	assert.Equal(t, hospital.DepartmentIDs, updated.DepartmentIDs)
}

func TestHospitalDelete_CascadesAcrossTheGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, doc1, doc2, patient, appt := buildHospitalGraph(t, f)

	warn, err := f.hospitals.Delete(ctx, adminActor, hospital.ID)
	require.NoError(t, err)
	assert.Nil(t, warn)

	_, err = f.store.GetHospital(ctx, hospital.ID)
	require.Error(t, err)
	_, err = f.store.GetAddress(ctx, hospital.AddressID)
	require.Error(t, err)
	_, err = f.store.GetAppointment(ctx, appt.ID)
	require.Error(t, err)

	depts, err := f.store.ListDepartmentsByHospital(ctx, hospital.ID)
	require.NoError(t, err)
	assert.Empty(t, depts)

	// Both appointment sides were pulled and affiliations cleared.
	p, err := f.store.GetPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.NotContains(t, p.AppointmentIDs, appt.ID)

	for _, id := range []string{doc1.ID, doc2.ID} {
		doc, err := f.store.GetDoctor(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, doc.HospitalAffiliation)
		assert.NotContains(t, doc.AppointmentIDs, appt.ID)
	}
}

func TestHospitalDelete_MissingAddressIsWarningNotFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, _, _, _, _ := buildHospitalGraph(t, f)

	// Simulate a dangling address reference before the cascade runs.
	require.NoError(t, f.store.DeleteAddress(ctx, hospital.AddressID))

	warn, err := f.hospitals.Delete(ctx, adminActor, hospital.ID)
	require.NoError(t, err)
	require.NotNil(t, warn)
	require.Len(t, warn.Failures, 1)
	assert.Equal(t, "address", warn.Failures[0].Kind)
	assert.Equal(t, hospital.AddressID, warn.Failures[0].ID)

	// The primary delete still went through.
	_, err = f.store.GetHospital(ctx, hospital.ID)
	require.Error(t, err)
}

func TestHospitalDelete_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.hospitals.Delete(context.Background(), adminActor, "no-such-hospital")
	assert.True(t, IsNotFound(err))
}

func TestHospitalGet_PopulatesView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, doc1, _, _, _ := buildHospitalGraph(t, f)

	view, err := f.hospitals.Get(ctx, hospital.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Address)
	assert.Equal(t, hospital.AddressID, view.Address.ID)
	require.Len(t, view.Departments, 1)
	assert.Equal(t, model.Cardiology, view.Departments[0].Department.Name)

	found := false
	for _, d := range view.Departments[0].Doctors {
		if d.ID == doc1.ID {
			found = true
		}
	}
	assert.True(t, found, "head doctor should appear in the department view")
}
