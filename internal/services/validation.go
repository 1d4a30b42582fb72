package services

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// Field messages shown next to the offending input
const (
	MsgNameRequired     = "O nome da entidade é obrigatório"
	MsgNameMin          = "Digite pelo menos 3 caracteres"
	MsgEmailRequired    = "O email é obrigatório"
	MsgEmailInvalid     = "Digite um email válido"
	MsgWhatsappRequired = "O WhatsApp é obrigatório"
	MsgUFRequired       = "O estado é obrigatório"
	MsgUFLength         = "Digite apenas a UF do estado"
	MsgCityRequired     = "A cidade é obrigatória"
	MsgLocationInvalid  = "Escolha uma localização válida"
	MsgItemsMin         = "Escolha pelo menos uma categoria"
	MsgImageRequired    = "Escolha uma imagem para o estabelecimento"
	MsgImageNotImage    = "O arquivo enviado precisa ser uma imagem"
)

var fieldMessages = map[string]string{
	"name.required":      MsgNameRequired,
	"name.min":           MsgNameMin,
	"email.required":     MsgEmailRequired,
	"email.email":        MsgEmailInvalid,
	"whatsapp.required":  MsgWhatsappRequired,
	"uf.required":        MsgUFRequired,
	"uf.len":             MsgUFLength,
	"city.required":      MsgCityRequired,
	"latitude.position":  MsgLocationInvalid,
	"longitude.position": MsgLocationInvalid,
	"items.min":          MsgItemsMin,
	"image.required":     MsgImageRequired,
	"image.image":        MsgImageNotImage,
}

// ValidationError carries every failing field of one submission attempt
type ValidationError struct {
	Fields models.ValidationErrors
}

func (e *ValidationError) Error() string {
	paths := make([]string, 0, len(e.Fields))
	for path := range e.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return fmt.Sprintf("validation failed: %s", strings.Join(paths, ", "))
}

// PointValidator applies the submission rules
type PointValidator struct {
	validate *validator.Validate
}

// NewPointValidator builds a validator keyed by wire field names
func NewPointValidator() *PointValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(validatePointStruct, models.PointSubmission{})
	return &PointValidator{validate: v}
}

// validatePointStruct covers the rules that span more than one tag
func validatePointStruct(sl validator.StructLevel) {
	point, ok := sl.Current().Interface().(models.PointSubmission)
	if !ok {
		return
	}

	if point.Position.IsSentinel() {
		sl.ReportError(point.Position.Latitude, "latitude", "Latitude", "position", "")
		sl.ReportError(point.Position.Longitude, "longitude", "Longitude", "position", "")
	}

	if point.Image != nil && !IsImage(point.Image.Data) {
		sl.ReportError(point.Image, "image", "Image", "image", "")
	}
}

// Validate returns nil or a *ValidationError listing every failing field
func (pv *PointValidator) Validate(point *models.PointSubmission) error {
	err := pv.validate.Struct(point)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := models.ValidationErrors{}
	for _, fe := range fieldErrors {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = messageFor(fe)
	}
	return &ValidationError{Fields: fields}
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}

// IsImage reports whether data sniffs as an image
func IsImage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}

// DetectContentType returns the sniffed MIME type of data without parameters
func DetectContentType(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}
