package model

type Role string

const (
	RolePatient            Role = "patient"
	RoleReceptionist       Role = "receptionist"
	RoleHealthProfessional Role = "health_professional"
	RoleLabTechnician      Role = "lab_technician"
	RoleClinicAdmin        Role = "clinic_admin"
	RoleSystemAdmin        Role = "system_admin"
)

type User struct {
	ID       int64
	Name     string
	Email    string
	Role     Role
	IsActive bool
}
