package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/grabsim/internal/camera"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/physics"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/spatial"
)

const (
	canvasCols      = 64
	canvasRows      = 22
	historyCapacity = 200
	moveStep        = 0.05
	turnStep        = 15.0 // degrees
	minFrame        = 0.001
	maxFrame        = 0.1

	// pickSlack widens a body's projected disc when picking, in camera pixels.
	pickSlack = 24.0
	gifPath   = "grabsim.gif"
)

// The canvas sits under the one-line header, inside canvasStyle's padding.
const (
	canvasTop  = 2
	canvasLeft = 2
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model runs a scene in real time. Each tick advances one frame of the
// elapsed wall time.
type Model struct {
	scene     *scenario.Scene
	view      Viewport
	held      *Canvas
	hand      *scenario.ControllerRig
	history   []float64
	running   bool
	showHelp  bool
	last      time.Time
	err       error
	recording bool
	frames    []*image.Paletted
}

// NewModel starts scene's simulator and frames it through its main camera.
func NewModel(scene *scenario.Scene) (Model, error) {
	if err := scene.Sim.Start(scene.SimConfig()); err != nil {
		return Model{}, err
	}
	cam := scene.Rig.Main()
	if cam == nil {
		cam = camera.New("view").LookAt(mgl64.Vec3{0, 2, -6}, mgl64.Vec3{0, 0.5, 0})
	}
	m := Model{
		scene:   scene,
		view:    Viewport{Cam: cam, Canvas: NewCanvas(canvasCols, canvasRows)},
		held:    NewCanvas(canvasCols, canvasRows),
		history: make([]float64, 0, historyCapacity),
		running: true,
	}
	if names := scene.ControllerNames(); len(names) > 0 {
		m.hand = scene.Controllers[names[0]]
	}
	m.draw()
	return m, nil
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil
	case TickMsg:
		now := time.Time(msg)
		if m.running {
			dt := maxFrame
			if !m.last.IsZero() {
				dt = clampFrame(now.Sub(m.last).Seconds())
			}
			m.advance(dt)
		}
		m.last = now
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "p":
		m.running = !m.running && m.err == nil
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		NextTheme()
	case "o":
		m.toggleRecording()
	case "v":
		m.toggleCamera()
	case "w":
		m.move(mgl64.Vec3{0, 0, moveStep})
	case "s":
		m.move(mgl64.Vec3{0, 0, -moveStep})
	case "a":
		m.move(mgl64.Vec3{-moveStep, 0, 0})
	case "d":
		m.move(mgl64.Vec3{moveStep, 0, 0})
	case "r":
		m.move(mgl64.Vec3{0, moveStep, 0})
	case "f":
		m.move(mgl64.Vec3{0, -moveStep, 0})
	case "q":
		m.turn(turnStep)
	case "e":
		m.turn(-turnStep)
	case " ":
		m.toggleTrigger()
	case "g":
		m.toggleGrip()
	case "x":
		m.toggleDriver()
	}
	return m, nil
}

// advance runs one frame and records the tracked body's speed.
func (m *Model) advance(dt float64) {
	if err := m.scene.Sim.Frame(dt); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.history = append(m.history, m.trackedSpeed())
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
}

func clampFrame(dt float64) float64 {
	return math.Max(minFrame, math.Min(maxFrame, dt))
}

func (m *Model) mouse(msg tea.MouseMsg) {
	p := m.scene.Pointer
	if p == nil {
		return
	}
	at := m.view.ToScreen(msg.X-canvasLeft, msg.Y-canvasTop)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.inCanvas(msg.X, msg.Y) {
			return
		}
		p.Device.SetPosition(at[0], at[1])
		p.Device.SetButton(true)
		if b := m.pick(at); b != nil {
			p.Driver.PointerDown(b)
		}
	case tea.MouseActionMotion:
		p.Device.SetPosition(at[0], at[1])
	case tea.MouseActionRelease:
		if !p.Device.Held() {
			return
		}
		p.Device.SetPosition(at[0], at[1])
		p.Device.SetButton(false)
		p.Driver.PointerUp()
	}
}

func (m *Model) inCanvas(x, y int) bool {
	col, row := x-canvasLeft, y-canvasTop
	return col >= 0 && row >= 0 && col < m.view.Canvas.Width && row < m.view.Canvas.Height
}

// pick returns the body whose projected disc lies nearest to screen point s.
func (m *Model) pick(s mgl64.Vec2) *physics.RigidBody {
	cam := m.view.Cam
	var best *physics.RigidBody
	bestDist := math.Inf(1)
	for _, b := range m.scene.World.Bodies() {
		p := cam.WorldToScreen(b.Position())
		if p[2] < nearClip {
			continue
		}
		d := mgl64.Vec2{p[0], p[1]}.Sub(s).Len()
		if d > b.Radius*cam.Focal()/p[2]+pickSlack || d >= bestDist {
			continue
		}
		best, bestDist = b, d
	}
	return best
}

func (m *Model) move(delta mgl64.Vec3) {
	if m.hand == nil {
		return
	}
	pose := m.hand.Device.Pose()
	pose.Position = pose.Position.Add(delta)
	m.hand.Device.SetPose(pose)
}

func (m *Model) turn(degrees float64) {
	if m.hand == nil {
		return
	}
	pose := m.hand.Device.Pose()
	pose.Rotation = spatial.Euler(0, degrees, 0).Mul(pose.Rotation).Normalize()
	m.hand.Device.SetPose(pose)
}

func (m *Model) toggleTrigger() {
	if m.hand == nil {
		return
	}
	name := m.scene.Config.Controller.Trigger
	m.hand.Device.SetButton(name, !m.hand.Device.Button(name))
}

// toggleGrip squeezes or opens the grip fully, moving its axis with it.
func (m *Model) toggleGrip() {
	if m.hand == nil {
		return
	}
	name := m.scene.Config.Controller.Grip
	down := !m.hand.Device.Button(name)
	m.hand.Device.SetButton(name, down)
	if down {
		m.hand.Device.SetAxis(name, 1)
	} else {
		m.hand.Device.SetAxis(name, 0)
	}
}

func (m *Model) toggleDriver() {
	if m.hand == nil {
		return
	}
	if m.hand.Driver.Enabled() {
		m.hand.Disable()
	} else {
		m.hand.Enable()
	}
}

// toggleCamera flips the second camera. With both enabled the pointer has
// no single camera and refuses to grab.
func (m *Model) toggleCamera() {
	cams := m.scene.Rig.Cameras()
	if len(cams) < 2 {
		return
	}
	cams[1].Enabled = !cams[1].Enabled
}

func (m *Model) grips() []*grab.Grip {
	var out []*grab.Grip
	if p := m.scene.Pointer; p != nil {
		out = append(out, p.Driver.Grip())
	}
	for _, name := range m.scene.ControllerNames() {
		out = append(out, m.scene.Controllers[name].Driver.Grip())
	}
	return out
}

func (m *Model) heldIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, g := range m.grips() {
		if b := g.Body(); b != nil {
			ids[b.ID()] = true
		}
	}
	return ids
}

// trackedSpeed is the speed of a held body, else of the last thrown one.
func (m *Model) trackedSpeed() float64 {
	for id := range m.heldIDs() {
		if b := m.scene.World.Body(id); b != nil {
			return b.Speed()
		}
	}
	rel := m.scene.Sim.Result().Releases
	if n := len(rel); n > 0 {
		if b := m.scene.World.Body(rel[n-1].Body); b != nil {
			return b.Speed()
		}
	}
	return 0
}

func (m *Model) draw() {
	m.view.Canvas.Clear()
	m.held.Clear()
	over := Viewport{Cam: m.view.Cam, Canvas: m.held}

	if m.scene.World.Settings().Ground {
		m.view.Grid(mgl64.Vec3{}, 3, 0.5)
	}

	held := m.heldIDs()
	tag := m.scene.Config.Controller.InteractableTag
	for _, b := range m.scene.World.Bodies() {
		if held[b.ID()] {
			over.Sphere(b.Position(), b.Radius, true)
			continue
		}
		m.view.Sphere(b.Position(), b.Radius, b.Tag() == tag)
	}

	for _, name := range m.scene.ControllerNames() {
		c := m.scene.Controllers[name]
		pose := c.Device.Pose()
		m.view.Axes(pose.Position, pose.Rotation, 0.2)
		m.view.Sphere(pose.Position, c.Volume.Radius, false)
	}

	if p := m.scene.Pointer; p != nil {
		over.Cross(p.Device.PointerPosition(), 2)
	}
}

// composite renders base with overlay cells drawn in the held color.
func composite(base, overlay *Canvas) string {
	styles := [2]lipgloss.Style{sceneStyle(), heldStyle()}
	var b strings.Builder
	for row := range base.Grid {
		run := make([]rune, 0, base.Width)
		kind := 0
		for col, r := range base.Grid[row] {
			k := 0
			if o := overlay.Grid[row][col]; o != brailleBlank {
				r |= o
				k = 1
			}
			if k != kind && len(run) > 0 {
				b.WriteString(styles[kind].Render(string(run)))
				run = run[:0]
			}
			kind = k
			run = append(run, r)
		}
		b.WriteString(styles[kind].Render(string(run)))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) View() string {
	status := statusStyle(m.running).Render("RUNNING")
	if !m.running {
		status = statusStyle(false).Render("PAUSED")
	}
	if m.recording {
		status += " " + errorStyle().Render("REC")
	}
	header := headerStyle().Render(strings.ToUpper(m.scene.Scenario.Name)) + "  " + status

	canvasView := canvasStyle.Render(composite(m.view.Canvas, m.held))
	statsView := statsStyle.Render(m.panel())
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView))
}

func (m Model) panel() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	row("Time", fmt.Sprintf("%.2fs", m.scene.Sim.Time()))
	if p := m.scene.Pointer; p != nil {
		row("Pointer", m.gripState(p.Driver.Grip(), p.Driver.Enabled()))
		if _, err := p.Driver.Camera(); err != nil {
			row("", mutedStyle().Render("no single camera"))
		}
	}
	if c := m.hand; c != nil {
		cc := m.scene.Config.Controller
		row("Hand", m.gripState(c.Driver.Grip(), c.Driver.Enabled()))
		take, _ := c.Hand.Time(cc.Animation)
		row(cc.Animation, fmt.Sprintf("%s %.2f", ProgressBar(take, 16), take))
		row("Buttons", fmt.Sprintf("%s %s  %s %s", cc.Trigger, onOff(c.Device.Button(cc.Trigger)), cc.Grip, onOff(c.Device.Button(cc.Grip))))
		row("Reach", fmt.Sprintf("%d bodies", c.Driver.Pool().Len()))
		row("Pulses", fmt.Sprintf("%d", len(c.Device.Pulses())))
	}

	releases := m.scene.Sim.Result().Releases
	if n := len(releases); n > 0 {
		r := releases[n-1]
		row("Last", fmt.Sprintf("%s %.2f m/s (%s)", m.scene.BodyName(r.Body), r.Speed(), r.Driver))
		speeds := make([]float64, n)
		for i, ev := range releases {
			speeds[i] = ev.Speed()
		}
		row("Throws", Sparkline(speeds, 24))
	}
	if m.err != nil {
		s.WriteString(errorStyle().Render(m.err.Error()) + "\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(26), asciigraph.Caption("speed m/s"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("drag    pointer grab/throw\nwasd rf move hand\nq/e     turn hand\nspace   trigger\ng       grip\nx       hand on/off\nv       second camera\np       pause\no       record gif\nt       theme"))
	} else {
		s.WriteString(helpStyle.Render("?:Help P:Pause T:Theme"))
	}
	return s.String()
}

func (m Model) gripState(g *grab.Grip, enabled bool) string {
	if !enabled {
		return mutedStyle().Render("disabled")
	}
	if b := g.Body(); b != nil {
		return heldStyle().Render("holding " + m.scene.BodyName(b.ID()))
	}
	return "idle"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *Model) toggleRecording() {
	if m.recording {
		m.saveGIF()
		m.recording = false
		m.frames = nil
		return
	}
	m.recording = true
	m.frames = make([]*image.Paletted, 0)
}

// captureFrame rasterizes the canvas dots, both layers, into a GIF frame.
func (m *Model) captureFrame() {
	const dot = 3
	c := m.view.Canvas
	w, h := c.PixelWidth(), c.PixelHeight()
	palette := color.Palette{color.Black, color.White, color.RGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}}
	img := image.NewPaletted(image.Rect(0, 0, w*dot, h*dot), palette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var idx uint8
			switch {
			case m.held.IsSet(x, y):
				idx = 2
			case c.IsSet(x, y):
				idx = 1
			default:
				continue
			}
			for dy := 0; dy < dot; dy++ {
				for dx := 0; dx < dot; dx++ {
					img.SetColorIndex(x*dot+dx, y*dot+dy, idx)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		m.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.err = err
	}
}
