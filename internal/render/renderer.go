// Package render draws world frames with gg and delivers them to a FrameSink.
package render

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"arena-client/internal/config"
	"arena-client/internal/protocol"
	"arena-client/internal/world"
)

const (
	playerRadius = 20.0
	bulletRadius = 4.0
	glowRadius   = 9.0

	// eyeSpread is the angular offset of the two eye markers around the
	// displayed orientation.
	eyeSpread   = 0.4
	eyeDistance = 13.0
	eyeRadius   = 3.5

	noteLineStep  = 20.0
	boardLineStep = 22.0
)

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorShape      = color.RGBA{70, 80, 110, 255}
	colorBullet     = color.RGBA{255, 214, 64, 255}
	colorGlow       = color.RGBA{255, 120, 0, 110}
	colorSelf       = color.RGBA{83, 255, 69, 255}
	colorOther      = color.RGBA{90, 160, 255, 255}
	colorEye        = color.RGBA{255, 255, 255, 255}
	colorLabel      = color.RGBA{230, 230, 240, 255}
	colorBoard      = color.RGBA{255, 214, 64, 255}
)

// Renderer draws one FrameView per call into a reused gg context.
// Not safe for concurrent use; owned by the session goroutine.
type Renderer struct {
	cfg config.VideoConfig
	dc  *gg.Context

	fontSmall  font.Face
	fontMedium font.Face
}

// New creates a renderer for a fixed-size surface. A font face is loaded once
// at startup if ARENA_FONT_PATH points at a TTF/OTF file; otherwise gg's
// built-in face is used.
func New(cfg config.VideoConfig) *Renderer {
	r := &Renderer{
		cfg: cfg,
		dc:  gg.NewContext(cfg.Width, cfg.Height),
	}
	r.loadFonts()
	return r
}

func (r *Renderer) loadFonts() {
	fontPath := os.Getenv("ARENA_FONT_PATH")
	if fontPath == "" {
		return
	}

	fontData, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return
	}
	parsedFont, err := opentype.Parse(fontData)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	r.fontSmall, err = opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size: 14, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to build small font face: %v", err)
		return
	}
	r.fontMedium, _ = opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size: 18, DPI: 72, Hinting: font.HintingFull,
	})
}

func (r *Renderer) useSmallFont() {
	if r.fontSmall != nil {
		r.dc.SetFontFace(r.fontSmall)
	}
}

func (r *Renderer) useMediumFont() {
	if r.fontMedium != nil {
		r.dc.SetFontFace(r.fontMedium)
	}
}

// Render draws the frame back-to-front: bullets, shapes, players, labels,
// notifications, scoreboard. The returned image buffer is reused across calls.
func (r *Renderer) Render(view FrameView) *image.RGBA {
	r.drawBackground()
	r.drawBullets(view.Bullets)
	r.drawShapes(view.Shapes)
	r.drawPlayers(view.Players)
	r.drawNotifications(view.Notifications)
	r.drawScoreboard(view.Scoreboard)
	return r.dc.Image().(*image.RGBA)
}

func (r *Renderer) drawBackground() {
	dc := r.dc
	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(r.cfg.Width), float64(r.cfg.Height))
	dc.Fill()

	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	gridSize := 100.0
	for x := 0.0; x < float64(r.cfg.Width); x += gridSize {
		dc.DrawLine(x, 0, x, float64(r.cfg.Height))
		dc.Stroke()
	}
	for y := 0.0; y < float64(r.cfg.Height); y += gridSize {
		dc.DrawLine(0, y, float64(r.cfg.Width), y)
		dc.Stroke()
	}
}

func (r *Renderer) drawBullets(bullets []world.Bullet) {
	dc := r.dc
	for _, b := range bullets {
		if b.Supercharged {
			// Two-layer glow: translucent halo under a bright core.
			dc.SetColor(colorGlow)
			dc.DrawCircle(b.X, b.Y, glowRadius)
			dc.Fill()
		}
		dc.SetColor(colorBullet)
		dc.DrawCircle(b.X, b.Y, bulletRadius)
		dc.Fill()
	}
}

// drawShapes fills boxes then circles, one color for all obstacles.
func (r *Renderer) drawShapes(shapes []protocol.ShapeIntro) {
	dc := r.dc
	dc.SetColor(colorShape)
	for _, s := range shapes {
		if s.Kind == protocol.ShapeBox {
			dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
			dc.Fill()
		}
	}
	for _, s := range shapes {
		if s.Kind == protocol.ShapeCircle {
			dc.DrawCircle(s.X, s.Y, s.Radius)
			dc.Fill()
		}
	}
}

func (r *Renderer) drawPlayers(players []PlayerView) {
	for _, p := range players {
		r.drawPlayer(p)
	}
	r.useSmallFont()
	for _, p := range players {
		r.drawPlayerLabel(p)
	}
}

func (r *Renderer) drawPlayer(p PlayerView) {
	dc := r.dc

	body := colorOther
	if p.IsSelf {
		body = colorSelf
	}
	dc.SetColor(body)
	dc.DrawCircle(p.X, p.Y, playerRadius)
	dc.Fill()

	// Eyes sit around the displayed orientation, which for the local player
	// is the predicted angle, not the server-confirmed one.
	dc.SetColor(colorEye)
	for _, offset := range [2]float64{-eyeSpread, eyeSpread} {
		a := p.DisplayAngle + offset
		ex := p.X + math.Cos(a)*eyeDistance
		ey := p.Y + math.Sin(a)*eyeDistance
		dc.DrawCircle(ex, ey, eyeRadius)
		dc.Fill()
	}
}

func (r *Renderer) drawPlayerLabel(p PlayerView) {
	dc := r.dc
	dc.SetColor(colorLabel)
	label := fmt.Sprintf("%s  %d", p.Username, p.Health)
	dc.DrawStringAnchored(label, p.X, p.Y-playerRadius-12, 0.5, 0.5)
}

// drawNotifications hangs the stack from the top-left corner: newest nearest
// the edge, oldest lowest.
func (r *Renderer) drawNotifications(notes []world.Notification) {
	dc := r.dc
	r.useSmallFont()
	n := len(notes)
	for i, note := range notes {
		row := n - 1 - i
		alpha := uint8(note.Opacity() * 255)
		dc.SetColor(color.RGBA{255, 255, 255, alpha})
		dc.DrawString(note.Message, 16, 24+float64(row)*noteLineStep)
	}
}

// drawScoreboard puts the top players in the opposite corner, right-aligned.
func (r *Renderer) drawScoreboard(ranked []world.Player) {
	dc := r.dc
	right := float64(r.cfg.Width) - 16

	r.useMediumFont()
	dc.SetColor(colorBoard)
	dc.DrawStringAnchored("TOP 5", right, 24, 1, 0.5)

	r.useSmallFont()
	dc.SetColor(colorLabel)
	for i, p := range ranked {
		line := fmt.Sprintf("%s  %d", p.Username, p.Score)
		dc.DrawStringAnchored(line, right, 24+float64(i+1)*boardLineStep, 1, 0.5)
	}
}
