package handlers

import (
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/validate"
)

const msgGeneric = "Something went wrong. Please try again."

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// ErrorHandler maps domain errors to HTTP responses: JSON under /api, the
// notfound page elsewhere. Internal details are logged, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": msgGeneric}
	message := msgGeneric

	var fe *fiber.Error
	if v, ok := domain.AsValidation(err); ok {
		status = fiber.StatusBadRequest
		body = fiber.Map{"error": "validation failed", "fields": v.Fields}
		message = "Please correct the errors below."
	} else if errors.Is(err, domain.ErrNotFound) {
		status, message = fiber.StatusNotFound, "Not found"
		body = fiber.Map{"error": "not found"}
	} else if errors.Is(err, domain.ErrProtected) {
		status, message = fiber.StatusConflict, "This object is referenced by other records and cannot be deleted."
		body = fiber.Map{"error": message}
	} else if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		status, message = fe.Code, fe.Message
		body = fiber.Map{"error": fe.Message}
	}

	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if isAPI(c) {
		return c.Status(status).JSON(body)
	}
	if rerr := c.Status(status).Render("notfound", fiber.Map{"Message": message}); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

func badRequest(msg string) error { return fiber.NewError(fiber.StatusBadRequest, msg) }

// bind decodes the request body into in.
func bind(c *fiber.Ctx, in any) error {
	if err := c.BodyParser(in); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": "malformed_body"})
		return badRequest("malformed request body")
	}
	return nil
}

func fieldNames(v *domain.ValidationError) []string {
	out := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// pathID reads and checks an id route parameter. A malformed id cannot
// name anything, so it is reported as not found.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": name})
		return "", domain.ErrNotFound
	}
	return id, nil
}
