package main

import (
	"image/color"
	"path/filepath"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
)

const panelWidth = 180

// Panel is the viewer's side panel.
type Panel struct {
	UI *ebitenui.UI

	title    *widget.Text
	debugBtn *widget.Button
}

// NewPanel builds a column of controls anchored to the top right.
func NewPanel(g *Game) *Panel {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 180})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnPressed := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	rowData := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Stretch: true})

	p := &Panel{}
	p.title = widget.NewText(
		widget.TextOpts.Text("no mesh", &face, white),
		widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
	)

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnPressed}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(rowData),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	reloadBtn := button("Reload", g.reloadMesh)
	clearBtn := button("Clear path", g.agent.Stop)
	p.debugBtn = button(debugLabel(g.debug), func() {
		g.debug = !g.debug
		p.debugBtn.Text().Label = debugLabel(g.debug)
	})

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, 0),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionEnd, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)
	panel.AddChild(p.title)
	panel.AddChild(reloadBtn)
	panel.AddChild(clearBtn)
	panel.AddChild(p.debugBtn)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	p.UI = &ebitenui.UI{Container: root}
	return p
}

// SetMesh shows the loaded mesh's file name.
func (p *Panel) SetMesh(path string) {
	if path == "" {
		p.title.Label = "no mesh"
		return
	}
	p.title.Label = filepath.Base(path)
}

func debugLabel(on bool) string {
	if on {
		return "Debug: on"
	}
	return "Debug: off"
}
