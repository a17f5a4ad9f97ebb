package client

import (
	"context"

	"github.com/MrPunder/qr-generator/internal/fallback"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
)

// Remote источник настоящих QR-кодов
type Remote interface {
	GenerateQR(ctx context.Context, req models.EncodeRequest) (*render.Image, error)
}

// Result изображение и признак того, что оно построено запасным генератором
type Result struct {
	Image    *render.Image
	Fallback bool
}

// Generator сначала обращается к сервису кодирования, при любой его ошибке строит запасной узор
type Generator struct {
	Remote   Remote // nil означает работу без сервиса
	Log      logger.Logger
	Fallback func(payload string, opts fallback.Options) (*render.Image, error)
}

func NewGenerator(remote Remote, log logger.Logger) *Generator {
	return &Generator{Remote: remote, Log: log, Fallback: fallback.Generate}
}

// Generate возвращает ошибку только при неверном запросе или отказе запасного генератора
func (g *Generator) Generate(ctx context.Context, req models.EncodeRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if g.Remote != nil {
		img, err := g.Remote.GenerateQR(ctx, req)
		if err == nil {
			return &Result{Image: img}, nil
		}
		g.Log.Infof("encoding service failed, using fallback pattern: %s", err)
	}

	format, _ := models.ParseOutputFormat(string(req.Format))
	generate := g.Fallback
	if generate == nil {
		generate = fallback.Generate
	}
	img, err := generate(req.Payload, fallback.Options{
		Size:       req.Size,
		Foreground: req.Foreground,
		Background: req.Background,
		Format:     format,
	})
	if err != nil {
		g.Log.Errorf("fallback generation failed: %s", err)
		return nil, err
	}
	return &Result{Image: img, Fallback: true}, nil
}
