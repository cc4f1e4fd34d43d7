package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

const (
	// NoResponseMessage is shown when the remote model answered with an
	// empty body. Deliberately not the local fallback: an empty 200 means
	// the model ran but had nothing to say.
	NoResponseMessage = "Sorry, I could not get a response right now. Please try again. 🙏"

	// BusyMessage is shown when an advice request is already in flight.
	// The guard lives here so the chat and voice surfaces share it.
	BusyMessage = "One moment — I am still working on your previous question. ⏳"
)

// Logger is the minimal logging surface the facade needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Result is the outcome of one advice request.
type Result struct {
	Reply    string `json:"reply"`
	Crop     string `json:"crop"`
	Intent   Intent `json:"intent"`           // set on the fallback path
	Fallback bool   `json:"fallback"`         // true when answered locally
	Reason   string `json:"reason,omitempty"` // remote failure reason
}

// Facade answers farmer questions: remote model first, deterministic
// local templates when the model is unreachable. It never returns an
// error; every path yields a display string.
type Facade struct {
	catalog    *Catalog
	remote     *RemoteClient
	logger     Logger
	historyMax int
	inFlight   atomic.Bool
}

func NewFacade(catalog *Catalog, remote *RemoteClient, historyMax int, logger Logger) *Facade {
	if historyMax <= 0 {
		historyMax = 10
	}
	return &Facade{
		catalog:    catalog,
		remote:     remote,
		logger:     logger,
		historyMax: historyMax,
	}
}

// GetAdvice resolves the crop context, tries the remote model and falls
// back to the local classifier on any transport, status, parse or
// timeout failure.
func (f *Facade) GetAdvice(ctx context.Context, question, selectedCrop string, history []Message) Result {
	if !f.inFlight.CompareAndSwap(false, true) {
		return Result{Reply: BusyMessage, Crop: selectedCrop}
	}
	defer f.inFlight.Store(false)

	cropCtx := f.catalog.ResolveCropContext(question, selectedCrop)

	reply, err := f.remote.Complete(ctx, f.systemPrompt(cropCtx), f.buildMessages(question, history))
	if err != nil {
		reason := "remote_failed"
		if errors.Is(err, ErrRemoteTimeout) {
			reason = "remote_timeout"
		}
		f.logger.Warn("remote advice failed, using local fallback", map[string]interface{}{
			"crop":   cropCtx.Crop,
			"reason": reason,
			"error":  err.Error(),
		})
		return f.fallback(question, cropCtx, reason)
	}

	if reply == "" {
		f.logger.Warn("remote advice returned empty reply", map[string]interface{}{
			"crop": cropCtx.Crop,
		})
		return Result{Reply: NoResponseMessage, Crop: cropCtx.Crop}
	}

	return Result{Reply: reply, Crop: cropCtx.Crop}
}

// Fallback produces the local templated answer directly. Exposed for the
// standalone classification task and for callers with no remote access.
func (f *Facade) Fallback(question, selectedCrop string) Result {
	return f.fallback(question, f.catalog.ResolveCropContext(question, selectedCrop), "local_only")
}

func (f *Facade) fallback(question string, cropCtx CropContext, reason string) Result {
	intent := Classify(Normalize(question))
	reply := RenderFallback(intent, cropCtx.Crop, cropCtx.Meta, cropCtx.Tip, question)
	return Result{
		Reply:    reply,
		Crop:     cropCtx.Crop,
		Intent:   intent,
		Fallback: true,
		Reason:   reason,
	}
}

// systemPrompt embeds the crop context and the fixed behaviour rules.
func (f *Facade) systemPrompt(cropCtx CropContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an agricultural market advisor for Indian farmers.\n")
	fmt.Fprintf(&b, "Current crop context: %s %s\n", cropCtx.Meta.Icon, cropCtx.Crop)
	fmt.Fprintf(&b, "- Growing season: %s\n", cropCtx.Meta.Season)
	fmt.Fprintf(&b, "- Harvest window: %s\n", cropCtx.Meta.Harvest)
	fmt.Fprintf(&b, "- Reference price: ₹%.0f/quintal\n", cropCtx.Meta.BasePrice)
	if cropCtx.Tip != "" {
		fmt.Fprintf(&b, "- Seasonal strategy: %s\n", cropCtx.Tip)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Answer only what is asked.\n")
	b.WriteString("- Use Indian units (quintal, acre, ₹).\n")
	b.WriteString("- Keep answers to 3-6 lines unless the farmer asks for detail.\n")
	b.WriteString("- Use relevant emoji sparingly.\n")
	b.WriteString("- Reply in the language the farmer used (Hindi, English or mixed).\n")
	b.WriteString("- Never invent live mandi prices; only use the reference price as an approximation.")

	return b.String()
}

// buildMessages appends the new question to the trailing history window.
func (f *Facade) buildMessages(question string, history []Message) []Message {
	if len(history) > f.historyMax {
		history = history[len(history)-f.historyMax:]
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	return append(messages, Message{Role: "user", Content: question})
}
