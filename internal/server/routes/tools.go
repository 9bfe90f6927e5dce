package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/toolcache/internal/server"
	"github.com/any-hub/toolcache/internal/version"
	"github.com/any-hub/toolcache/pkg/platform"
	"github.com/any-hub/toolcache/pkg/toolcache"
)

// RegisterToolRoutes 暴露只读的 /-/tools 与 /-/info 接口，便于在 runner 上排查缓存内容。
func RegisterToolRoutes(app *fiber.App, tools server.ToolLookup) {
	if app == nil || tools == nil {
		return
	}

	app.Get("/-/info", func(c fiber.Ctx) error {
		return c.JSON(infoPayload{
			Root:        tools.Root(),
			Platform:    tools.Platform(),
			Arch:        tools.Arch(),
			DefaultArch: platform.DefaultArch(tools.Platform()),
			Version:     version.Full(),
		})
	})

	app.Get("/-/tools/:name", func(c fiber.Ctx) error {
		name := c.Params("name")
		found, err := tools.FindAllVersions(requestContext(c), name)
		if err != nil {
			return renderLookupError(c, err)
		}
		toolcache.SortByVersion(found)
		return c.JSON(listPayload{Name: name, Tools: encodeTools(found)})
	})

	app.Get("/-/tools/:name/:version", func(c fiber.Ctx) error {
		name := c.Params("name")
		ver := c.Params("version")

		var (
			tool toolcache.Tool
			err  error
		)
		if raw := strings.TrimSpace(c.Query("arch")); raw != "" {
			tool, err = tools.FindWithArch(requestContext(c), name, ver, platform.ParseArch(raw))
		} else {
			tool, err = tools.Find(requestContext(c), name, ver)
		}
		if err != nil {
			return renderLookupError(c, err)
		}
		return c.JSON(encodeTool(tool))
	})
}

type infoPayload struct {
	Root        string            `json:"root"`
	Platform    platform.Platform `json:"platform"`
	Arch        platform.Arch     `json:"arch"`
	DefaultArch platform.Arch     `json:"default_arch"`
	Version     string            `json:"version"`
}

type toolPayload struct {
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Arch    platform.Arch `json:"arch"`
	Path    string        `json:"path"`
}

type listPayload struct {
	Name  string        `json:"name"`
	Tools []toolPayload `json:"tools"`
}

func encodeTool(tool toolcache.Tool) toolPayload {
	return toolPayload{
		Name:    tool.Name(),
		Version: tool.Version(),
		Arch:    tool.Arch(),
		Path:    tool.Path(),
	}
}

func encodeTools(tools []toolcache.Tool) []toolPayload {
	result := make([]toolPayload, 0, len(tools))
	for _, tool := range tools {
		result = append(result, encodeTool(tool))
	}
	return result
}

func renderLookupError(c fiber.Ctx, err error) error {
	var notFound *toolcache.ToolNotFoundError
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "tool_not_found",
			"name":    notFound.Name,
			"version": notFound.Version,
			"arch":    notFound.Arch.String(),
		})
	case errors.Is(err, toolcache.ErrInvalidName), errors.Is(err, toolcache.ErrInvalidVersion):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid_request",
			"detail": err.Error(),
		})
	default:
		return err
	}
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
