package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/mandacaru/erp-api/internal/httperr"
)

const (
	MaxImageSide = 1600
	// limite de pixels antes de decodificar; 40 MP
	MaxImagePixels = 40_000_000
	jpegQuality    = 85
)

// Prepared é o arquivo pronto para upload.
type Prepared struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Prepare normaliza comprovantes e anexos: imagens viram JPEG com no máximo
// MaxImageSide no lado maior; PDF passa direto; o resto é recusado.
func Prepare(raw []byte, maxBytes int64) (*Prepared, error) {
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, httperr.ErrBusiness("file_too_large")
	}

	ct := http.DetectContentType(raw)
	// DetectContentType devolve "image/webp" só em versões novas do Go
	if ct == "application/octet-stream" && isWebP(raw) {
		ct = "image/webp"
	}

	var (
		decode func(io.Reader) (image.Image, error)
		config func(io.Reader) (image.Config, error)
	)

	switch ct {
	case "application/pdf":
		return &Prepared{Data: raw, ContentType: ct, Ext: ".pdf"}, nil
	case "image/jpeg":
		decode, config = jpeg.Decode, jpeg.DecodeConfig
	case "image/png":
		decode, config = png.Decode, png.DecodeConfig
	case "image/webp":
		decode, config = webp.Decode, webp.DecodeConfig
	default:
		return nil, httperr.ErrBusiness("unsupported_file_type")
	}

	// o cabeçalho diz o tamanho real; arquivo pequeno pode declarar muitos pixels
	cfg, err := config(bytes.NewReader(raw))
	if err != nil || !withinPixelBudget(cfg) {
		return nil, httperr.ErrBusiness("invalid_image")
	}

	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_image")
	}

	img = downscale(img, MaxImageSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}

	return &Prepared{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: ".jpg"}, nil
}

// ReadLimited lê até maxBytes+1 para detectar arquivo grande sem carregar tudo.
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, httperr.ErrBusiness("file_too_large")
	}
	return raw, nil
}

func downscale(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = h * maxSide / w
	} else {
		nw = w * maxSide / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func withinPixelBudget(cfg image.Config) bool {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return false
	}
	return int64(cfg.Width)*int64(cfg.Height) <= MaxImagePixels
}

func isWebP(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP"
}

// ObjectKey monta a chave "<pasta>/<id>/<uuid><ext>" a partir do nome original.
func ObjectKey(folder string, entityID uint, unique string, ext string) string {
	return path.Join(folder, strconv.FormatUint(uint64(entityID), 10), unique+strings.ToLower(ext))
}
