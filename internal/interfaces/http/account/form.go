package account

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

// parseStoreForm reads a multipart or urlencoded store form. Coordinates are accepted as
// lng/lat or as location[coordinates][0|1]; the address as address or location[address].
func parseStoreForm(w http.ResponseWriter, r *http.Request) (application.UpsertStoreCommand, error) {
	r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
		err = r.ParseMultipartForm(common.MaxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return application.UpsertStoreCommand{}, domain.Validationf("form exceeds %d bytes", common.MaxUploadBytes)
		}
		return application.UpsertStoreCommand{}, domain.Validationf("malformed form: %v", err)
	}

	description := r.FormValue("description")
	if utf8.RuneCountInString(description) > common.MaxStoreDescriptionRunes {
		return application.UpsertStoreCommand{}, domain.Validationf("description must be at most %d characters", common.MaxStoreDescriptionRunes)
	}

	lng, err := common.ParseFloat("longitude", firstValue(r, "lng", "location[coordinates][0]"))
	if err != nil {
		return application.UpsertStoreCommand{}, err
	}
	lat, err := common.ParseFloat("latitude", firstValue(r, "lat", "location[coordinates][1]"))
	if err != nil {
		return application.UpsertStoreCommand{}, err
	}

	cmd := application.UpsertStoreCommand{
		Name:        r.FormValue("name"),
		Description: description,
		Tags:        formTags(r),
		Longitude:   lng,
		Latitude:    lat,
		Address:     firstValue(r, "address", "location[address]"),
	}

	photo, err := formPhoto(r)
	if err != nil {
		return application.UpsertStoreCommand{}, err
	}
	cmd.Photo = photo
	return cmd, nil
}

func firstValue(r *http.Request, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(r.FormValue(key)); v != "" {
			return v
		}
	}
	return ""
}

// formTags accepts repeated tags fields as well as comma separated values.
func formTags(r *http.Request) []string {
	var tags []string
	for _, raw := range r.Form["tags"] {
		tags = append(tags, strings.Split(raw, ",")...)
	}
	return tags
}

func formPhoto(r *http.Request) (*application.PhotoUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, domain.Validationf("read photo: %v", err)
	}
	defer file.Close()

	if header.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.Validationf("read photo: %v", err)
	}
	return &application.PhotoUpload{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}
