// Gloss is a terminal page reader with selection-driven lookups: drag over
// a word or passage and act on it with a dictionary lookup, a tagged note,
// or a question to an AI assistant.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gloss/chat"
	"gloss/config"
	"gloss/dict"
	"gloss/fetcher"
	"gloss/input"
	"gloss/learn"
	"gloss/lineedit"
	"gloss/llm"
	"gloss/note"
	"gloss/page"
	"gloss/popup"
	"gloss/record"
	"gloss/render"
	"gloss/selection"
	"gloss/translate"
)

func main() {
	url := ""
	printMode := false
	initConfig := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-p", "--print":
			printMode = true
		case "--init-config":
			initConfig = true
		case "-h", "--help":
			printUsage()
			return
		default:
			if url == "" {
				url = arg
			}
		}
	}

	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	if printMode {
		if err := runPrint(url); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(url); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Gloss - Terminal Reader

Usage: gloss [options] [url]

Options:
  -p, --print       Print page text to stdout (one-shot mode)
  --init-config     Output default config (redirect to ~/.config/gloss/config.toml)
  -h, --help        Show this help

Keys:
  j/k d/u g/G       Scroll
  o                 Open a URL
  L / N / A         Learn, note, or ask about the saved selection
  q                 Quit

Drag with the mouse to select text; release to raise the action popup.`)
}

// runPrint fetches a page and writes its text blocks to stdout.
func runPrint(url string) error {
	if url == "" {
		return fmt.Errorf("no URL given")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fetcher.Configure(fetcher.Options{
		UserAgent:      cfg.Fetcher.UserAgent,
		TimeoutSeconds: cfg.Fetcher.TimeoutSeconds,
		ChromePath:     cfg.Fetcher.ChromePath,
	})

	res, err := fetcher.Smart(url)
	if err != nil {
		return err
	}
	doc, err := page.ParseString(res.HTML)
	if err != nil {
		return err
	}
	if doc.Title != "" {
		fmt.Println(doc.Title)
		fmt.Println()
	}
	for _, b := range doc.Blocks {
		fmt.Println(b.Text)
		fmt.Println()
	}
	return nil
}

func run(url string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logClose, err := openLogger()
	if err != nil {
		return err
	}
	defer logClose()

	fetcher.Configure(fetcher.Options{
		UserAgent:      cfg.Fetcher.UserAgent,
		TimeoutSeconds: cfg.Fetcher.TimeoutSeconds,
		ChromePath:     cfg.Fetcher.ChromePath,
	})

	storePath, err := cfg.StorePath()
	if err != nil {
		return err
	}
	store, err := record.Open(storePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	app, err := newApp(cfg, logger, store)
	if err != nil {
		return err
	}

	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("not a terminal: %w", err)
	}
	if err := term.EnterRawMode(); err != nil {
		return err
	}
	render.EnterAltScreen(os.Stdout)
	render.EnableMouse(os.Stdout)
	render.EnableModifiedKeys(os.Stdout)
	defer func() {
		render.DisableModifiedKeys(os.Stdout)
		render.DisableMouse(os.Stdout)
		render.ExitAltScreen(os.Stdout)
		term.RestoreMode()
	}()

	if url != "" {
		app.load(url)
	}

	app.loop()

	// Let in-flight record saves finish before the process exits.
	app.dispatcher.Wait()
	return nil
}

func openLogger() (*log.Logger, func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Join(home, ".config", "gloss")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "gloss.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}

// detectorAdapter bridges the translate client's detection call to the
// learn panel's Detector interface.
type detectorAdapter struct {
	client *translate.Client
}

func (d detectorAdapter) DetectLanguage(ctx context.Context, text string) learn.DetectResult {
	det := d.client.Detect(ctx, text)
	return learn.DetectResult{Success: det.Success, Language: det.Language, Confidence: det.Confidence}
}

// pageResult carries an async page load back to the event loop.
type pageResult struct {
	url string
	doc *page.Document
	err error
}

// app owns all interactive state. Everything here is touched only from the
// event loop goroutine; async work comes back through channels.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	canvas *render.Canvas
	page   *page.Page
	status string

	registry *input.Registry
	router   *input.Router
	scheme   lineedit.KeyScheme
	tracker  *selection.Tracker

	quick  *popup.Quick
	detail *popup.Detail

	dictClient  *dict.Client
	transClient *translate.Client
	llmClient   *llm.Client
	player      learn.AudioPlayer
	dispatcher  *record.Dispatcher

	// urlEdit is the bottom-row URL prompt, registered as a focus target
	// while open so the shared router feeds it printable keys.
	urlEdit   *lineedit.Editor
	urlPrompt bool
	urlEditID string
	resultCh  chan pageResult
	frameCh   chan struct{}
	selCh     chan selection.Snapshot
	selStartX int
	selStartY int
	dragging  bool
	quit      bool
}

func newApp(cfg *config.Config, logger *log.Logger, store *record.Store) (*app, error) {
	canvas, err := render.NewCanvasFromTerminal()
	if err != nil {
		return nil, err
	}

	registry := input.NewRegistry()
	a := &app{
		cfg:         cfg,
		logger:      logger,
		canvas:      canvas,
		registry:    registry,
		router:      input.NewRouter(registry),
		scheme:      lineedit.SchemeByName(cfg.Editor.Scheme),
		dictClient:  dict.NewClient().WithBaseURL(cfg.Dictionary.BaseURL),
		transClient: translate.NewClient().WithInstances(cfg.Translate.Instances...),
		dispatcher:  record.NewDispatcher(store, logger),
		urlEdit:     lineedit.New(),
		urlEditID:   "app.url",
		resultCh:    make(chan pageResult, 1),
		frameCh:     make(chan struct{}, 1),
		selCh:       make(chan selection.Snapshot, 1),
	}

	a.llmClient = llm.NewClient(
		llm.NewClaudeAPI(os.Getenv(cfg.AI.APIKeyEnv)).WithModel(cfg.AI.Model),
		llm.NewClaudeCode(),
	)

	player, err := learn.NewExecPlayer()
	if err != nil {
		logger.Printf("audio disabled: %v", err)
	} else {
		a.player = player
	}

	a.tracker = selection.NewTracker()
	a.tracker.InTypingContext = func() bool {
		_, _, ok := a.registry.Focused()
		return ok
	}
	// Freezes fire on a timer goroutine; hand them to the event loop so
	// popup state is only ever touched from one place.
	a.tracker.OnFinalized = func(s selection.Snapshot) {
		select {
		case a.selCh <- s:
		default:
		}
		a.RequestFrame()
	}

	a.quick = popup.NewQuick(a)
	a.quick.OnAction = a.openDetail

	return a, nil
}

// Size implements popup.Surface.
func (a *app) Size() (int, int) {
	return a.canvas.Width(), a.canvas.Height()
}

// ScrollOffset implements popup.Surface.
func (a *app) ScrollOffset() (int, int) {
	if a.page == nil {
		return 0, 0
	}
	return 0, a.page.ScrollY()
}

// RequestFrame implements popup.Surface. Safe from any goroutine.
func (a *app) RequestFrame() {
	select {
	case a.frameCh <- struct{}{}:
	default:
	}
}

func (a *app) viewportHeight() int {
	return a.canvas.Height() - 1 // last row is the status bar
}

// load fetches a page in the background and hands the result to the loop.
func (a *app) load(url string) {
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	a.status = "loading " + url + "…"
	go func() {
		res, err := fetcher.Smart(url)
		if err != nil {
			a.resultCh <- pageResult{url: url, err: err}
			return
		}
		doc, err := page.ParseString(res.HTML)
		a.resultCh <- pageResult{url: res.FinalURL, doc: doc, err: err}
	}()
}

func (a *app) loop() {
	inputCh := make(chan []byte, 8)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(inputCh)
				return
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			inputCh <- chunk
		}
	}()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	a.draw()

	var pending []byte
	for !a.quit {
		select {
		case chunk, ok := <-inputCh:
			if !ok {
				return
			}
			pending = append(pending, chunk...)
			for len(pending) > 0 {
				ev, n := input.Parse(pending)
				if n == 0 {
					break
				}
				pending = pending[n:]
				a.handleEvent(ev)
			}
			a.draw()

		case res := <-a.resultCh:
			a.applyPage(res)
			a.draw()

		case s := <-a.selCh:
			a.selectionFinalized(s)
			a.draw()

		case <-a.frameCh:
			a.draw()

		case <-winch:
			a.resize()
			a.draw()
		}
	}
}

func (a *app) selectionFinalized(s selection.Snapshot) {
	if a.detail != nil && a.detail.State() != popup.Hidden {
		return
	}
	a.quick.ShowAt(s.Rect, s.SavedText)
}

func (a *app) applyPage(res pageResult) {
	if res.err != nil {
		a.status = "load failed: " + res.err.Error()
		a.logger.Printf("load %s: %v", res.url, res.err)
		return
	}
	a.page = page.NewPage(res.doc, res.url, a.canvas.Width())
	a.status = ""
	a.tracker.Clear()
	a.quick.HideImmediate()
	a.closeDetail()
}

func (a *app) resize() {
	canvas, err := render.NewCanvasFromTerminal()
	if err != nil {
		return
	}
	a.canvas = canvas
	if a.page != nil {
		a.page.Relayout(canvas.Width())
	}
	if a.detail != nil {
		a.detail.WindowResized()
	}
}

func (a *app) handleEvent(ev input.Event) {
	switch {
	case ev.Pointer != nil:
		a.handlePointer(*ev.Pointer)
	case ev.Key != nil:
		a.handleKey(*ev.Key)
	}
}

func (a *app) handlePointer(p input.Pointer) {
	switch p.Kind {
	case input.PointerScrollUp, input.PointerScrollDown:
		a.scrollPage(p.Kind)
		return
	}

	// Hovering the quick popup pauses its auto-hide.
	a.quick.PointerActivity(p)

	if a.detail != nil && a.detail.HandlePointer(p) {
		return
	}
	if a.quick.HandlePointer(p) {
		return
	}
	if a.page == nil {
		return
	}

	switch p.Kind {
	case input.PointerDown:
		a.registry.Blur()
		a.tracker.Clear()
		a.dragging = true
		a.selStartX, a.selStartY = p.X, p.Y
	case input.PointerDrag:
		if !a.dragging {
			return
		}
		text, rect, ok := a.page.TextBetween(a.selStartX, a.selStartY, p.X, p.Y)
		if ok {
			a.tracker.SelectionChanged(text, &rect)
		} else {
			a.tracker.SelectionChanged("", nil)
		}
	case input.PointerUp:
		a.dragging = false
		a.tracker.PointerUp()
	}
}

func (a *app) scrollPage(kind input.PointerKind) {
	if a.page == nil {
		return
	}
	delta := 3
	if kind == input.PointerScrollUp {
		delta = -3
	}
	a.page.Scroll(delta, a.viewportHeight())
	if a.detail != nil {
		a.detail.Scrolled()
	}
	a.quick.Hide()
}

func (a *app) handleKey(k input.Key) {
	if a.urlPrompt {
		a.handleURLPromptKey(k)
		return
	}

	// Printable keys go to whichever popup field holds focus before the
	// page keymap can see them.
	if a.router.Route(k) {
		return
	}
	if a.detail != nil && a.detail.HandleKey(k) {
		return
	}

	if k.Special == input.SpecEscape {
		if a.detail != nil && a.detail.State() != popup.Hidden {
			a.detail.Hide()
			return
		}
		if a.quick.State() != popup.Hidden {
			a.quick.Hide()
			return
		}
		a.tracker.Clear()
		return
	}

	if !k.Printable() {
		return
	}

	kb := a.cfg.Keybindings
	h := a.viewportHeight()
	switch {
	case config.Matches(k.Rune, kb.Quit):
		a.quit = true
	case config.Matches(k.Rune, kb.OpenURL):
		a.openURLPrompt()
	case config.Matches(k.Rune, kb.Learn):
		a.actOnSelection(popup.ActionLearn)
	case config.Matches(k.Rune, kb.Note):
		a.actOnSelection(popup.ActionNote)
	case config.Matches(k.Rune, kb.Chat):
		a.actOnSelection(popup.ActionChat)
	case config.Matches(k.Rune, kb.PlayAudio):
		if a.detail != nil && a.detail.Action() == popup.ActionLearn {
			if lp, ok := a.detail.Panel().(*learn.Panel); ok {
				lp.PlayAudio()
			}
		}
	case a.page == nil:
		// Remaining bindings all scroll the page.
	case config.Matches(k.Rune, kb.ScrollDown):
		a.page.Scroll(1, h)
		a.pageScrolled()
	case config.Matches(k.Rune, kb.ScrollUp):
		a.page.Scroll(-1, h)
		a.pageScrolled()
	case config.Matches(k.Rune, kb.HalfPageDown):
		a.page.Scroll(h/2, h)
		a.pageScrolled()
	case config.Matches(k.Rune, kb.HalfPageUp):
		a.page.Scroll(-h/2, h)
		a.pageScrolled()
	case config.Matches(k.Rune, kb.GoTop):
		a.page.Scroll(-a.page.ContentHeight(), h)
		a.pageScrolled()
	case config.Matches(k.Rune, kb.GoBottom):
		a.page.Scroll(a.page.ContentHeight(), h)
		a.pageScrolled()
	}
}

func (a *app) pageScrolled() {
	if a.detail != nil {
		a.detail.Scrolled()
	}
	a.quick.Hide()
}

// actOnSelection opens a detail popup for the saved selection, the keyboard
// counterpart to clicking a quick-popup button.
func (a *app) actOnSelection(action popup.Action) {
	text := a.tracker.SavedText()
	if text == "" {
		return
	}
	a.quick.HideImmediate()
	a.openDetail(action, text)
}

// openDetail builds the panel for an action and shows it anchored to the
// frozen selection.
func (a *app) openDetail(action popup.Action, savedText string) {
	rect, ok := a.tracker.Rect()
	if !ok {
		return
	}
	a.closeDetail()

	// The popup is created after its panel, so the panel's resize hook
	// goes through this indirection.
	var d *popup.Detail
	notifyResize := func() {
		if d != nil {
			d.ContentResized()
		}
	}

	var panel popup.Panel
	var lp *learn.Panel
	switch action {
	case popup.ActionLearn:
		lp = learn.NewPanel(learn.Deps{
			Detector:      detectorAdapter{a.transClient},
			Dictionary:    a.dictClient,
			Translator:    a.transClient,
			Player:        a.player,
			Registry:      a.registry,
			NotifyResize:  notifyResize,
			RequestFrame:  a.RequestFrame,
			ReducedMotion: a.cfg.Display.ReducedMotion,
		})
		panel = lp

	case popup.ActionNote:
		panel = note.NewPanel(savedText, note.Deps{
			Registry:     a.registry,
			NotifyResize: notifyResize,
			RequestFrame: a.RequestFrame,
			OnSave: func(tags []string, comment string) {
				a.dispatcher.Dispatch(&record.Record{
					Type:      record.TypeNote,
					Text:      savedText,
					SourceURL: a.pageURL(),
					Tags:      tags,
					Comment:   comment,
				})
				a.closeDetail()
				a.RequestFrame()
			},
		})

	case popup.ActionChat:
		pageCtx := savedText
		if a.page != nil {
			pageCtx = a.page.ContextAround(savedText)
		}
		panel = chat.NewPanel(savedText, pageCtx, chat.Deps{
			Client:       a.llmClient,
			Registry:     a.registry,
			NotifyResize: notifyResize,
			RequestFrame: a.RequestFrame,
		})

	default:
		return
	}

	d = popup.NewDetail(a, action, panel)
	if lp != nil {
		// Marked meanings become a record when the popup leaves the
		// screen, whatever dismissed it. The hide callback runs on the
		// exit-transition timer, so the source URL is captured now.
		sourceURL := a.pageURL()
		destroy := d.OnHidden
		d.OnHidden = func() {
			a.saveMarked(savedText, sourceURL, lp)
			destroy()
		}
	}
	d.ShowAt(rect)
	a.detail = d
	a.tracker.Clear()

	// Start the lookup after the popup is on screen.
	if lp != nil {
		lp.Run(savedText, a.cfg.Languages.Source, a.cfg.Languages.Target)
	}
}

func (a *app) saveMarked(text, sourceURL string, lp *learn.Panel) {
	marked := lp.MarkedMeanings()
	if len(marked) == 0 {
		return
	}
	meanings := make([]record.MeaningRecord, len(marked))
	for i, m := range marked {
		meanings[i] = record.MeaningRecord{
			PartOfSpeech: m.PartOfSpeech,
			Title:        m.Title,
			Definition:   m.Definition,
		}
	}
	a.dispatcher.Dispatch(&record.Record{
		Type:      record.TypeLearn,
		Text:      text,
		SourceURL: sourceURL,
		Meanings:  meanings,
	})
}

func (a *app) closeDetail() {
	if a.detail == nil {
		return
	}
	a.detail.HideImmediate()
	a.detail = nil
}

func (a *app) pageURL() string {
	if a.page == nil {
		return ""
	}
	return a.page.URL()
}

func (a *app) openURLPrompt() {
	a.urlPrompt = true
	a.urlEdit.Clear()
	a.registry.Register(a.urlEditID, a.urlEdit)
	a.registry.Focus(a.urlEditID)
}

func (a *app) closeURLPrompt() {
	a.urlPrompt = false
	a.registry.Unregister(a.urlEditID)
}

func (a *app) handleURLPromptKey(k input.Key) {
	if a.router.Route(k) {
		return
	}
	ev := a.scheme.HandleKey(a.urlEdit, k)
	if ev.Submit {
		url := strings.TrimSpace(a.urlEdit.Text())
		a.closeURLPrompt()
		if url != "" {
			a.load(url)
		}
		return
	}
	if ev.Cancel {
		a.closeURLPrompt()
	}
}

func (a *app) draw() {
	c := a.canvas
	c.Clear()

	if a.page != nil {
		a.page.Render(c)
	} else if a.status == "" {
		c.WriteString(2, 1, "press 'o' to open a URL", render.Style{Dim: true})
	}

	a.drawSelection(c)

	a.quick.Frame()
	a.quick.Draw(c)
	if a.detail != nil {
		a.detail.Frame()
		a.detail.Draw(c)
		if a.detail.State() == popup.Hidden {
			a.detail = nil
		}
	}

	a.drawStatusBar(c)

	if err := c.RenderTo(os.Stdout); err != nil {
		a.logger.Printf("render: %v", err)
	}
}

// drawSelection inverts the cells of the live selection rect. Bottom and
// Right are exclusive.
func (a *app) drawSelection(c *render.Canvas) {
	rect, ok := a.tracker.Rect()
	if !ok {
		return
	}
	for y := rect.Top; y < rect.Bottom; y++ {
		for x := rect.Left; x < rect.Right; x++ {
			cell := c.Get(x, y)
			st := cell.Style
			st.Reverse = true
			c.Set(x, y, cell.Rune, st)
		}
	}
}

func (a *app) drawStatusBar(c *render.Canvas) {
	y := c.Height() - 1
	c.FillRect(0, y, c.Width(), 1, ' ', render.Style{Reverse: true})

	if a.urlPrompt {
		prompt := "open: " + a.urlEdit.Text()
		c.WriteString(1, y, render.TruncateToWidth(prompt, c.Width()-2), render.Style{Reverse: true, Bold: true})
		return
	}

	left := a.status
	if left == "" && a.page != nil {
		left = a.page.Title()
		if left == "" {
			left = a.page.URL()
		}
	}
	if left == "" {
		left = "gloss"
	}
	c.WriteString(1, y, render.TruncateToWidth(left, c.Width()-12), render.Style{Reverse: true})

	if a.page != nil && a.page.ContentHeight() > 0 {
		pct := 100 * (a.page.ScrollY() + a.viewportHeight()) / a.page.ContentHeight()
		if pct > 100 {
			pct = 100
		}
		right := fmt.Sprintf("%3d%%", pct)
		c.WriteString(c.Width()-len(right)-1, y, right, render.Style{Reverse: true, Dim: true})
	}
}
