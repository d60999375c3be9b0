package main

import (
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

// seedDemo loads a small clinic for STORE=memory runs.
func seedDemo(s *storage.MemoryStore) {
	for _, u := range []model.User{
		{ID: 1, Name: "Demo Patient", Email: "patient@clinic.local", Role: model.RolePatient, IsActive: true},
		{ID: 2, Name: "Demo Professional", Email: "doctor@clinic.local", Role: model.RoleHealthProfessional, IsActive: true},
		{ID: 3, Name: "Front Desk", Email: "desk@clinic.local", Role: model.RoleReceptionist, IsActive: true},
		{ID: 4, Name: "Clinic Admin", Email: "admin@clinic.local", Role: model.RoleClinicAdmin, IsActive: true},
	} {
		s.AddUser(u)
	}
	for day := time.Monday; day <= time.Friday; day++ {
		s.AddTemplate(model.AvailabilityTemplate{ProfessionalID: 2, DayOfWeek: day, Start: timerules.NewClock(8, 20), End: timerules.NewClock(12, 30), IsActive: true})
		s.AddTemplate(model.AvailabilityTemplate{ProfessionalID: 2, DayOfWeek: day, Start: timerules.NewClock(13, 20), End: timerules.NewClock(18, 20), IsActive: true})
	}
	s.AddTemplate(model.AvailabilityTemplate{ProfessionalID: 2, DayOfWeek: time.Saturday, Start: timerules.NewClock(8, 20), End: timerules.NewClock(12, 30), IsActive: true})
}
