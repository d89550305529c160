package model

import "time"

// Document categories accepted on upload.
const (
	CategoryPersonal = "personal"
	CategoryBusiness = "business"
	CategoryLegal    = "legal"
	CategoryOther    = "other"
)

// Document is the metadata of one uploaded file, embedded in its owner's Settings.
// ID is generated on upload; Path is the object storage key of the backing file.
type Document struct {
	ID           string    `json:"id" bson:"id"`
	Filename     string    `json:"filename" bson:"filename"`
	OriginalName string    `json:"originalName" bson:"originalName"`
	Path         string    `json:"path" bson:"path"`
	Size         int64     `json:"size" bson:"size"`
	MimeType     string    `json:"mimeType" bson:"mimeType"`
	UploadDate   time.Time `json:"uploadDate" bson:"uploadDate"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Category     string    `json:"category" bson:"category" validate:"oneof=personal business legal other"`
}
