package handlers

import (
	"mime"
	"path"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/popstats/internal/blobstore"
)

// GetArtifact streams a stored object back to the caller
func (h *Handler) GetArtifact(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := blobstore.ValidateKey(key); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	data, err := h.store.Get(c.UserContext(), key)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType(key))
	return c.Send(data)
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return fiber.MIMEOctetStream
}
