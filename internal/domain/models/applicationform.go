// internal/domain/models/applicationform.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document kinds uploaded with an application form.
const (
	DocIdentityCard       = "identity_card"
	DocBirthCertificate   = "birth_certificate"
	DocExamCertificate    = "exam_certificate"
	DocParentIdentityCard = "parent_identity_card"
	DocCertificate        = "certificate"
)

// ApplicationForm is a pending trainee or agent application.
// It is deleted by an admin or consumed when its applicant signs up.
type ApplicationForm struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role        string             `bson:"role" json:"role"` // trainee | agent
	FullName    string             `bson:"full_name" json:"full_name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phone_number" json:"phone_number"`
	Gender      string             `bson:"gender" json:"gender"` // male | female

	// trainee only
	ParentName       string `bson:"parent_name,omitempty" json:"parent_name,omitempty"`
	ParentContact    string `bson:"parent_contact,omitempty" json:"parent_contact,omitempty"`
	ParentOccupation string `bson:"parent_occupation,omitempty" json:"parent_occupation,omitempty"`

	// agent only
	Profession        string `bson:"profession,omitempty" json:"profession,omitempty"`
	YearsOfExperience int    `bson:"years_of_experience,omitempty" json:"years_of_experience,omitempty"`

	Documents    map[string]string `bson:"documents" json:"documents"`
	DocumentKeys map[string]string `bson:"document_keys" json:"-"`

	InvitedAt *time.Time `bson:"invited_at,omitempty" json:"invited_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}
