package manager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/manager"
	"github.com/uniyakcom/gist/message"
)

type recordingView struct {
	events []string
}

func (v *recordingView) ShowModal(msg message.Message, position string) {
	v.events = append(v.events, "show:"+msg.MessageID+":"+position)
}

func (v *recordingView) DismissModal(msg message.Message) {
	v.events = append(v.events, "hide:"+msg.MessageID)
}

func (v *recordingView) Embed(msg message.Message, el string) {
	v.events = append(v.events, "embed:"+el)
}

func (v *recordingView) Remove(msg message.Message, el string) {
	v.events = append(v.events, "remove:"+el)
}

func TestModalPresenter(t *testing.T) {
	view := &recordingView{}
	p := manager.NewModalPresenter(view)
	msg := message.New("promo", message.Properties{
		message.GistKey: map[string]any{"position": "bottom"},
	})
	other := message.New("other", nil)

	p.OnMessageDismissed(msg, core.Dismissed(msg)) // 未展示
	p.OnMessageDisplayed(msg, core.Displayed(other))
	p.OnMessageDisplayed(msg, core.Displayed(msg))
	p.OnMessageDisplayed(msg, core.Displayed(msg))
	p.OnMessageDismissed(msg, core.Dismissed(other))
	p.OnMessageDismissed(msg, core.Dismissed(msg))
	p.OnMessageDismissed(msg, core.Initial())

	assert.Equal(t, []string{"show:promo:bottom", "hide:promo"}, view.events)
}

func TestInlinePresenter(t *testing.T) {
	view := &recordingView{}
	p := manager.NewInlinePresenter(view)
	msg := message.New("banner", message.Properties{
		message.GistKey: map[string]any{"elementId": "top-slot"},
	})

	p.OnMessageDisplayed(msg, core.Displayed(msg))
	p.OnMessageDismissed(msg, core.Initial())

	assert.Equal(t, []string{"embed:top-slot", "remove:top-slot"}, view.events)
}
