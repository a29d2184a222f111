package http

import (
	"bytes"
	"errors"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geophotos/internal/core/usecases"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
)

// Client-facing messages for rejected uploads.
const (
	msgNoFile          = "No file uploaded"
	msgNoSelectedFile  = "No selected file"
	msgMissingLocation = "Missing location data"
	msgUploaded        = "Photo uploaded successfully!"
)

// UploadPhotoHandler accepts a multipart form with a "photo" file and
// "latitude"/"longitude" fields.
func UploadPhotoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, closeFile, err := parseUpload(c)
		if err != nil {
			return err
		}
		defer closeFile()

		ctx := c.UserContext()
		photo, err := deps.Photos.Upload(ctx, in)
		switch {
		case errors.Is(err, usecases.ErrNoFile):
			return rejectUpload(c, "no_file", msgNoFile)
		case errors.Is(err, usecases.ErrNoSelectedFile):
			return rejectUpload(c, "no_selected_file", msgNoSelectedFile)
		case errors.Is(err, usecases.ErrMissingLocation):
			return rejectUpload(c, "missing_location", msgMissingLocation)
		case err != nil:
			return err
		}

		LoggerFromCtx(ctx).Info("photo uploaded",
			"filename", photo.Filename,
			"latitude", photo.Latitude,
			"longitude", photo.Longitude,
		)
		return c.JSON(fiber.Map{"message": msgUploaded})
	}
}

func rejectUpload(c *fiber.Ctx, reason, msg string) error {
	metrics.UploadRejections.WithLabelValues(reason).Inc()
	return errBadRequest(c, msg)
}

// parseUpload reads the multipart body. A body that is not multipart yields
// an input with no file, which the service rejects.
func parseUpload(c *fiber.Ctx) (usecases.UploadInput, func(), error) {
	var in usecases.UploadInput
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil {
		return in, noop, nil
	}

	in.Latitude = firstValue(form, "latitude")
	in.Longitude = firstValue(form, "longitude")

	if files := form.File["photo"]; len(files) > 0 {
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return in, noop, err
		}
		in.Filename = fh.Filename
		in.Content = f
		return in, func() { _ = f.Close() }, nil
	}

	// A file input left empty is sent with filename="", which the multipart
	// parser files under values rather than files. A plain "photo" text field
	// has no filename parameter at all and counts as no file.
	if _, ok := form.Value["photo"]; ok && hasFilenameParam(c, "photo") {
		in.Content = strings.NewReader("")
	}
	return in, noop, nil
}

// hasFilenameParam rescans the multipart body for a part named field whose
// Content-Disposition carries a filename parameter, empty or not.
func hasFilenameParam(c *fiber.Ctx, field string) bool {
	_, params, err := mime.ParseMediaType(string(c.Request().Header.ContentType()))
	if err != nil || params["boundary"] == "" {
		return false
	}

	mr := multipart.NewReader(bytes.NewReader(c.Body()), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return false
		}
		_, disp, err := mime.ParseMediaType(part.Header.Get(fiber.HeaderContentDisposition))
		if err != nil || disp["name"] != field {
			continue
		}
		if _, ok := disp["filename"]; ok {
			return true
		}
	}
}

func firstValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// ListPhotosHandler returns every stored photo record in upload order.
func ListPhotosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		photos, err := deps.Photos.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(photos)
	}
}

// NearbyPhotosHandler returns photos within a radius of a point, closest
// first. Records with non-numeric coordinates are left out.
func NearbyPhotosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
		if latErr != nil || lonErr != nil {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat must be within ±90 and lon within ±180")
		}

		radius := c.QueryFloat("radius", 1000)
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		photos, err := deps.Photos.Nearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return err
		}
		return c.JSON(photos)
	}
}
