package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"

	"github.com/park285/autobattler-league/pkg/leaguedto"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// PoisonLimit is the poison scale drawn on each player row.
const PoisonLimit = 10

var ErrNilView = errors.New("render: nil game view")

// StatusRenderer turns a game view into a PNG status card.
type StatusRenderer interface {
	RenderStatus(ctx context.Context, view *leaguedto.GameView) ([]byte, error)
}

type cardRenderer struct {
	face font.Face
}

func NewStatusRenderer() StatusRenderer {
	return &cardRenderer{face: basicfont.Face7x13}
}

var (
	backgroundColor   = color.RGBA{R: 20, G: 22, B: 33, A: 255}
	hudPanelColor     = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudShadowColor    = color.NRGBA{0, 0, 0, 50}
	rowColor          = color.NRGBA{R: 36, G: 40, B: 58, A: 255}
	rowOutColor       = color.NRGBA{R: 30, G: 32, B: 42, A: 255}
	textPrimary       = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	textMuted         = color.NRGBA{R: 140, G: 146, B: 170, A: 255}
	poisonEmptyColor  = color.NRGBA{R: 54, G: 58, B: 80, A: 255}
	poisonFillColor   = color.NRGBA{R: 111, G: 207, B: 87, A: 255}
	poisonDangerColor = color.NRGBA{R: 226, G: 88, B: 72, A: 255}
	accentColor       = color.NRGBA{R: 255, G: 228, B: 120, A: 255}
)

func (r *cardRenderer) RenderStatus(ctx context.Context, view *leaguedto.GameView) ([]byte, error) {
	if view == nil {
		return nil, ErrNilView
	}

	const (
		width        = 560
		margin       = 20
		headerHeight = 56
		rowHeight    = 34
		rowGap       = 6
		pairingRow   = 20
		iconSize     = 16
		panelRadius  = 10
		shadowOffset = 4
	)

	pairingsHeight := 0
	if len(view.Pairings) > 0 {
		pairingsHeight = margin + pairingRow*(len(view.Pairings)+1)
	}
	rowsHeight := len(view.Players) * (rowHeight + rowGap)
	height := margin*3 + headerHeight + rowsHeight + pairingsHeight

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	drawer := &font.Drawer{Dst: img, Face: r.face}

	header := image.Rect(margin, margin, width-margin, margin+headerHeight)
	drawRoundedPanel(img, header.Add(image.Pt(0, shadowOffset)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, header, panelRadius, hudPanelColor)
	top := image.Rect(header.Min.X, header.Min.Y+6, header.Max.X, header.Min.Y+headerHeight/2)
	bottom := image.Rect(header.Min.X, header.Min.Y+headerHeight/2, header.Max.X, header.Max.Y-6)
	drawCenteredString(drawer, top, headline(view), textPrimary)
	drawCenteredString(drawer, bottom, subline(view), textMuted)

	y := header.Max.Y + margin
	for _, p := range view.Players {
		row := image.Rect(margin, y, width-margin, y+rowHeight)
		if err := r.drawPlayerRow(img, drawer, row, p, iconSize); err != nil {
			return nil, err
		}
		y += rowHeight + rowGap
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(view.Pairings) > 0 {
		y += margin / 2
		drawString(drawer, margin, y+r.face.Metrics().Ascent.Ceil(), "Pairings", accentColor)
		for _, pr := range view.Pairings {
			y += pairingRow
			drawString(drawer, margin+8, y+r.face.Metrics().Ascent.Ceil(), pairingLine(pr), textPrimary)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *cardRenderer) drawPlayerRow(img *image.RGBA, drawer *font.Drawer, row image.Rectangle, p leaguedto.PlayerStatus, iconSize int) error {
	const (
		nameWidth = 150
		segWidth  = 14
		segGap    = 3
	)
	bg := rowColor
	nameColor := textPrimary
	if p.Eliminated {
		bg = rowOutColor
		nameColor = textMuted
	}
	drawRoundedPanel(img, row, 8, bg)

	iconY := row.Min.Y + (row.Dy()-iconSize)/2
	x := row.Min.X + 10
	marker := iconKind(-1)
	switch {
	case p.Ghost:
		marker = iconGhost
	case p.Eliminated:
		marker = iconSkull
	}
	if marker >= 0 {
		icon, err := renderIcon(marker, iconSize)
		if err != nil {
			return err
		}
		drawIcon(img, icon, image.Pt(x, iconY))
	}
	x += iconSize + 8

	name := truncateWithEllipsis(r.face, p.Name, nameWidth)
	baseline := baselineIn(r.face, row)
	drawString(drawer, x, baseline, name, nameColor)
	x += nameWidth + 10

	drop, err := renderIcon(iconPoison, iconSize)
	if err != nil {
		return err
	}
	drawIcon(img, drop, image.Pt(x, iconY))
	x += iconSize + 6

	fill := poisonFillColor
	if p.Poison > 6 {
		fill = poisonDangerColor
	}
	segTop := row.Min.Y + row.Dy()/2 - 5
	for i := 0; i < PoisonLimit; i++ {
		clr := poisonEmptyColor
		if i < p.Poison {
			clr = fill
		}
		seg := image.Rect(x, segTop, x+segWidth, segTop+10)
		drawRoundedPanel(img, seg, 2, clr)
		x += segWidth + segGap
	}
	x = drawString(drawer, x+4, baseline, strconv.Itoa(p.Poison), textPrimary) + 14

	coin, err := renderIcon(iconTreasure, iconSize)
	if err != nil {
		return err
	}
	for i := 0; i < p.Treasures; i++ {
		drawIcon(img, coin, image.Pt(x, iconY))
		x += iconSize - 4
	}
	return nil
}

func headline(view *leaguedto.GameView) string {
	if view.Champion != nil {
		return view.Champion.Name + " is the Champion!"
	}
	return fmt.Sprintf("Round %d (Battle %d/3)", view.Round, view.BattleInRound)
}

func subline(view *leaguedto.GameView) string {
	s := fmt.Sprintf("Hand size %d", view.HandSize)
	if view.NewRound {
		s += "  |  new round: draft first"
	}
	return s
}

func pairingLine(pr leaguedto.Pairing) string {
	if pr.Bye {
		name := pr.A.Name
		if pr.A.Bye {
			name = pr.B.Name
		}
		return fmt.Sprintf("%d. %s has a BYE", pr.Number, name)
	}
	line := fmt.Sprintf("%d. %s vs. %s", pr.Number, pr.A.Name, pr.B.Name)
	switch pr.Result {
	case "":
	case "draw":
		line += "  (draw)"
	case pr.A.ID:
		line += "  (" + pr.A.Name + " won)"
	case pr.B.ID:
		line += "  (" + pr.B.Name + " won)"
	}
	return line
}
