package domain

import "time"

type PropertyStatus string

const (
	StatusActive   PropertyStatus = "Activa"
	StatusInactive PropertyStatus = "Inactiva"
)

type UserRole string

const (
	RoleClient UserRole = "cliente"
	RoleAgent  UserRole = "agente"
)

// Property is one real-estate listing. JSON field names follow the wire
// contract consumed by the mobile client.
type Property struct {
	ID            uint            `json:"id_propiedad"`
	PublisherID   uint            `json:"id_usuario_publica"`
	Title         string          `json:"titulo"`
	Description   string          `json:"descripcion"`
	OperationType string          `json:"tipo_operacion"`
	PropertyType  string          `json:"tipo_inmueble"`
	Price         float64         `json:"precio"`
	Currency      string          `json:"moneda"`
	Address       string          `json:"direccion_completa"`
	City          string          `json:"ciudad"`
	Country       string          `json:"pais"`
	Bathrooms     int             `json:"num_banos"`
	Bedrooms      int             `json:"num_dormitorios"`
	AreaM2        float64         `json:"metros_cuadrados"`
	Status        PropertyStatus  `json:"estado"`
	PublishedAt   time.Time       `json:"fecha_publicacion"`
	Photos        []PropertyPhoto `json:"fotos,omitempty"`
}

// PropertyPhoto is one stored image belonging to a listing. StorageRef is a
// path relative to the storage root, never an absolute filesystem path.
// Exactly one photo per property has Primary set.
type PropertyPhoto struct {
	ID         uint   `json:"id_foto"`
	PropertyID uint   `json:"id_propiedad"`
	StorageRef string `json:"url_foto"`
	Primary    bool   `json:"es_principal"`
}

// UploadMeta records what the client actually sent for a photo. Kept for
// audit; the stored filename is generated and shares nothing with it.
type UploadMeta struct {
	OriginalName string `json:"nombre_original"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

type User struct {
	ID           uint      `json:"id_usuario"`
	Name         string    `json:"nombre"`
	Email        string    `json:"correo"`
	Phone        string    `json:"telefono"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"rol"`
	RegisteredAt time.Time `json:"fecha_registro"`
}

// Contact is the publisher contact block returned with a listing detail.
type Contact struct {
	Name  string `json:"nombre_agente"`
	Phone string `json:"telefono_agente"`
	Email string `json:"correo_agente"`
}

// Inquiry is a contact request from an interested user for one listing. A
// requester sends at most one inquiry per listing.
type Inquiry struct {
	ID          uint      `json:"id_solicitud"`
	RequesterID uint      `json:"id_solicitante"`
	PropertyID  uint      `json:"id_propiedad"`
	CreatedAt   time.Time `json:"fecha_solicitud"`
}

// InquiryWithProperty is the requester-side view: the inquiry plus a summary
// of the listing it targets and the publisher's contact details.
type InquiryWithProperty struct {
	Inquiry
	PropertyTitle   string `json:"titulo"`
	PropertyAddress string `json:"direccion_completa"`
	PropertyPhoto   string `json:"url_foto,omitempty"`
	OwnerName       string `json:"propietario_nombre"`
	OwnerPhone      string `json:"propietario_telefono"`
	OwnerEmail      string `json:"propietario_correo"`
}

// InquiryWithRequester is the publisher-side view: the inquiry plus the
// contact details of the user who sent it.
type InquiryWithRequester struct {
	Inquiry
	RequesterName  string `json:"solicitante_nombre"`
	RequesterPhone string `json:"solicitante_telefono"`
	RequesterEmail string `json:"solicitante_correo"`
}
