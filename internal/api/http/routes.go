package httpapi

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
	"github.com/brayo-pip/aw-watcher-network/internal/eventstore"
)

var validate = validator.New()

// RegisterRoutes wires the ActivityWatch REST subset served by the stub
// event-store into the Fiber app.
func RegisterRoutes(app *fiber.App, store *eventstore.MemoryStore, testing bool) {
	v0 := app.Group("/api/0")

	v0.Get("/info", func(c *fiber.Ctx) error {
		hostname, _ := os.Hostname()
		return c.JSON(fiber.Map{
			"hostname": hostname,
			"version":  "stub",
			"testing":  testing,
		})
	})

	v0.Get("/buckets", func(c *fiber.Ctx) error {
		return c.JSON(store.Buckets())
	})

	v0.Get("/buckets/:id", func(c *fiber.Ctx) error {
		b, err := store.GetBucket(c.Params("id"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(b)
	})

	v0.Post("/buckets/:id", func(c *fiber.Ctx) error {
		var b activity.Bucket
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid bucket payload")
		}
		if err := validate.Struct(b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b.ID = c.Params("id")

		if err := store.CreateBucket(b); err != nil {
			if errors.Is(err, activity.ErrBucketExists) {
				return c.SendStatus(fiber.StatusNotModified)
			}
			return storeError(err)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	v0.Post("/buckets/:id/heartbeat", func(c *fiber.Ctx) error {
		pulsetime, err := parsePulsetime(c.Query("pulsetime"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var ev activity.Event
		if err := c.BodyParser(&ev); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid event payload")
		}
		if err := validate.Struct(ev); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stored, err := store.Heartbeat(c.Params("id"), ev, pulsetime)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(stored)
	})

	v0.Get("/buckets/:id/events", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 0)
		if limit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
		}
		events, err := store.Events(c.Params("id"), limit)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(events)
	})
}

func storeError(err error) error {
	if errors.Is(err, activity.ErrBucketNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// parsePulsetime reads the merge window in (possibly fractional) seconds.
func parsePulsetime(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("pulsetime query parameter is required")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, errors.New("pulsetime must be a non-negative number of seconds")
	}
	return time.Duration(secs * float64(time.Second)), nil
}
