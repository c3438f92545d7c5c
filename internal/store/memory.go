package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/caregraph/caregraph/pkg/model"
)

// Memory is an in-memory Store used by unit tests and local development.
// Atomic snapshots the full dataset and restores it if fn fails, while a
// per-root mutex serializes cascades on the same aggregate root.
type Memory struct {
	mu   sync.RWMutex
	data *dataset

	txMu    sync.Mutex
	rootsMu sync.Mutex
	roots   map[string]*sync.Mutex
}

type dataset struct {
	addresses    map[string]model.Address
	hospitals    map[string]model.Hospital
	departments  map[string]model.Department
	doctors      map[string]model.Doctor
	patients     map[string]model.Patient
	appointments map[string]model.Appointment
	predictions  map[string]model.AiPrediction
	users        map[string]model.User

	// insertion sequence per kind:id, used for deterministic listing and
	// distance tie-breaks
	seq  map[string]int
	next int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:  newDataset(),
		roots: make(map[string]*sync.Mutex),
	}
}

func newDataset() *dataset {
	return &dataset{
		addresses:    make(map[string]model.Address),
		hospitals:    make(map[string]model.Hospital),
		departments:  make(map[string]model.Department),
		doctors:      make(map[string]model.Doctor),
		patients:     make(map[string]model.Patient),
		appointments: make(map[string]model.Appointment),
		predictions:  make(map[string]model.AiPrediction),
		users:        make(map[string]model.User),
		seq:          make(map[string]int),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.addresses {
		c.addresses[k] = v.Clone()
	}
	for k, v := range d.hospitals {
		c.hospitals[k] = v.Clone()
	}
	for k, v := range d.departments {
		c.departments[k] = v.Clone()
	}
	for k, v := range d.doctors {
		c.doctors[k] = v.Clone()
	}
	for k, v := range d.patients {
		c.patients[k] = v.Clone()
	}
	for k, v := range d.appointments {
		c.appointments[k] = v.Clone()
	}
	for k, v := range d.predictions {
		c.predictions[k] = v.Clone()
	}
	for k, v := range d.users {
		c.users[k] = v.Clone()
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	c.next = d.next
	return c
}

func (d *dataset) touch(kind, id string) {
	key := kind + ":" + id
	if _, ok := d.seq[key]; !ok {
		d.seq[key] = d.next
		d.next++
	}
}

func (d *dataset) order(kind, id string) int {
	return d.seq[kind+":"+id]
}

func (m *Memory) rootLock(key string) *sync.Mutex {
	m.rootsMu.Lock()
	defer m.rootsMu.Unlock()
	l, ok := m.roots[key]
	if !ok {
		l = &sync.Mutex{}
		m.roots[key] = l
	}
	return l
}

// Atomic serializes on rootKey, runs fn against this store and rolls the
// dataset back to the pre-fn snapshot if fn fails. Only one atomic scope runs
// at a time; plain reads stay concurrent. Nested Atomic calls are not
// supported.
func (m *Memory) Atomic(ctx context.Context, rootKey string, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rl := m.rootLock(rootKey)
	rl.Lock()
	defer rl.Unlock()

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.data = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// Address

func (m *Memory) GetAddress(ctx context.Context, id string) (*model.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.data.addresses[id]
	if !ok {
		return nil, ErrNotFound
	}
	a = a.Clone()
	return &a, nil
}

func (m *Memory) PutAddress(ctx context.Context, a *model.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("address", a.ID)
	m.data.addresses[a.ID] = a.Clone()
	return nil
}

func (m *Memory) DeleteAddress(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.addresses[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.addresses, id)
	return nil
}

func (m *Memory) NearbyHospitalAddresses(ctx context.Context, p model.GeoPoint, radiusMeters float64) ([]model.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type hit struct {
		addr model.Address
		dist float64
		ord  int
	}
	var hits []hit
	for id, a := range m.data.addresses {
		if a.HospitalID == "" || a.Location == nil {
			continue
		}
		d := HaversineMeters(p, *a.Location)
		if d <= radiusMeters {
			hits = append(hits, hit{addr: a.Clone(), dist: d, ord: m.data.order("address", id)})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].ord < hits[j].ord
	})
	out := make([]model.Address, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.addr)
	}
	return out, nil
}

// Hospital

func (m *Memory) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.data.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	h = h.Clone()
	return &h, nil
}

func (m *Memory) GetHospitalByName(ctx context.Context, name string) (*model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.data.hospitals {
		if strings.EqualFold(h.Name, name) {
			h = h.Clone()
			return &h, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Hospital, 0, len(m.data.hospitals))
	for _, h := range m.data.hospitals {
		out = append(out, h.Clone())
	}
	sortByInsertion(m.data, "hospital", out, func(h model.Hospital) string { return h.ID })
	return out, nil
}

func (m *Memory) HospitalsWithDoctor(ctx context.Context, doctorID string) ([]model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Hospital
	for _, h := range m.data.hospitals {
		if model.ContainsID(h.DoctorIDs, doctorID) {
			out = append(out, h.Clone())
		}
	}
	sortByInsertion(m.data, "hospital", out, func(h model.Hospital) string { return h.ID })
	return out, nil
}

func (m *Memory) HospitalsWithPatient(ctx context.Context, patientID string) ([]model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Hospital
	for _, h := range m.data.hospitals {
		if model.ContainsID(h.PatientIDs, patientID) {
			out = append(out, h.Clone())
		}
	}
	sortByInsertion(m.data, "hospital", out, func(h model.Hospital) string { return h.ID })
	return out, nil
}

func (m *Memory) PutHospital(ctx context.Context, h *model.Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("hospital", h.ID)
	m.data.hospitals[h.ID] = h.Clone()
	return nil
}

func (m *Memory) DeleteHospital(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.hospitals[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.hospitals, id)
	return nil
}

// Department

func (m *Memory) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	d = d.Clone()
	return &d, nil
}

func (m *Memory) ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Department
	for _, d := range m.data.departments {
		if d.HospitalID == hospitalID {
			out = append(out, d.Clone())
		}
	}
	sortByInsertion(m.data, "department", out, func(d model.Department) string { return d.ID })
	return out, nil
}

func (m *Memory) DepartmentsWithDoctor(ctx context.Context, doctorID string) ([]model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Department
	for _, d := range m.data.departments {
		if model.ContainsID(d.DoctorIDs, doctorID) || d.HeadDoctorID == doctorID {
			out = append(out, d.Clone())
		}
	}
	sortByInsertion(m.data, "department", out, func(d model.Department) string { return d.ID })
	return out, nil
}

func (m *Memory) FindDepartments(ctx context.Context, hospitalIDs []string, names []model.DepartmentCategory) ([]model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Department
	for _, d := range m.data.departments {
		if !model.ContainsID(hospitalIDs, d.HospitalID) {
			continue
		}
		for _, n := range names {
			if d.Name == n {
				out = append(out, d.Clone())
				break
			}
		}
	}
	sortByInsertion(m.data, "department", out, func(d model.Department) string { return d.ID })
	return out, nil
}

func (m *Memory) PutDepartment(ctx context.Context, d *model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("department", d.ID)
	m.data.departments[d.ID] = d.Clone()
	return nil
}

func (m *Memory) DeleteDepartment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.departments[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.departments, id)
	return nil
}

// Doctor

func (m *Memory) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	d = d.Clone()
	return &d, nil
}

func (m *Memory) GetDoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.data.doctors {
		if d.UserID == userID {
			d = d.Clone()
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Doctor, 0, len(m.data.doctors))
	for _, d := range m.data.doctors {
		out = append(out, d.Clone())
	}
	sortByInsertion(m.data, "doctor", out, func(d model.Doctor) string { return d.ID })
	return out, nil
}

func (m *Memory) DoctorsWithPatient(ctx context.Context, patientID string) ([]model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Doctor
	for _, d := range m.data.doctors {
		if model.ContainsID(d.PatientIDs, patientID) {
			out = append(out, d.Clone())
		}
	}
	sortByInsertion(m.data, "doctor", out, func(d model.Doctor) string { return d.ID })
	return out, nil
}

func (m *Memory) PutDoctor(ctx context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("doctor", d.ID)
	m.data.doctors[d.ID] = d.Clone()
	return nil
}

func (m *Memory) DeleteDoctor(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.doctors[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.doctors, id)
	return nil
}

// Patient

func (m *Memory) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = p.Clone()
	return &p, nil
}

func (m *Memory) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.data.patients {
		if p.UserID == userID {
			p = p.Clone()
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListPatients(ctx context.Context) ([]model.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Patient, 0, len(m.data.patients))
	for _, p := range m.data.patients {
		out = append(out, p.Clone())
	}
	sortByInsertion(m.data, "patient", out, func(p model.Patient) string { return p.ID })
	return out, nil
}

func (m *Memory) PutPatient(ctx context.Context, p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("patient", p.ID)
	m.data.patients[p.ID] = p.Clone()
	return nil
}

func (m *Memory) DeletePatient(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.patients, id)
	return nil
}

// Appointment

func (m *Memory) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.data.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a = a.Clone()
	return &a, nil
}

func (m *Memory) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return m.appointmentsWhere(func(model.Appointment) bool { return true })
}

func (m *Memory) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return m.appointmentsWhere(func(a model.Appointment) bool { return a.PatientID == patientID })
}

func (m *Memory) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return m.appointmentsWhere(func(a model.Appointment) bool { return a.DoctorID == doctorID })
}

func (m *Memory) AppointmentsByHospital(ctx context.Context, hospitalID string) ([]model.Appointment, error) {
	return m.appointmentsWhere(func(a model.Appointment) bool { return a.HospitalID == hospitalID })
}

func (m *Memory) appointmentsWhere(pred func(model.Appointment) bool) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, a := range m.data.appointments {
		if pred(a) {
			out = append(out, a.Clone())
		}
	}
	sortByInsertion(m.data, "appointment", out, func(a model.Appointment) string { return a.ID })
	return out, nil
}

func (m *Memory) PutAppointment(ctx context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("appointment", a.ID)
	m.data.appointments[a.ID] = a.Clone()
	return nil
}

func (m *Memory) DeleteAppointment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.appointments, id)
	return nil
}

// AiPrediction

func (m *Memory) GetPrediction(ctx context.Context, id string) (*model.AiPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data.predictions[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = p.Clone()
	return &p, nil
}

func (m *Memory) ListPredictions(ctx context.Context) ([]model.AiPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.AiPrediction, 0, len(m.data.predictions))
	for _, p := range m.data.predictions {
		out = append(out, p.Clone())
	}
	sortByInsertion(m.data, "prediction", out, func(p model.AiPrediction) string { return p.ID })
	return out, nil
}

func (m *Memory) PutPrediction(ctx context.Context, p *model.AiPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("prediction", p.ID)
	m.data.predictions[p.ID] = p.Clone()
	return nil
}

func (m *Memory) DeletePrediction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.predictions[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.predictions, id)
	return nil
}

// User

func (m *Memory) GetUser(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = u.Clone()
	return &u, nil
}

func (m *Memory) PutUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.touch("user", u.ID)
	m.data.users[u.ID] = u.Clone()
	return nil
}

// sortByInsertion orders a result slice by original insertion sequence.
// Callers hold at least a read lock.
func sortByInsertion[T any](d *dataset, kind string, items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return d.order(kind, id(items[i])) < d.order(kind, id(items[j]))
	})
}

var _ Store = (*Memory)(nil)
