package core

import "strings"

type SelectionBroker struct {
	title string
}

func NewSelectionBroker(title string) *SelectionBroker {
	return &SelectionBroker{title: strings.TrimSpace(title)}
}

// BuildChooser makes the last cleared descriptor the primary target and keeps
// the rest, in discovery order, as alternates. Capture intents are pointed at
// the sink so the provider has a known place to write.
func (b *SelectionBroker) BuildChooser(cleared []ProviderDescriptor, sink PendingOutputSink) DispatchTarget {
	return b.BuildChooserTitled("", cleared, sink)
}

func (b *SelectionBroker) BuildChooserTitled(title string, cleared []ProviderDescriptor, sink PendingOutputSink) DispatchTarget {
	title = strings.TrimSpace(title)
	if title == "" && b != nil {
		title = b.title
	}
	target := DispatchTarget{
		Title:      title,
		Alternates: []DispatchIntent{},
	}
	if len(cleared) == 0 {
		target.Primary = DispatchIntent{Placeholder: true}
		return target
	}

	intents := make([]DispatchIntent, 0, len(cleared))
	for _, descriptor := range cleared {
		intents = append(intents, toDispatchIntent(descriptor, sink))
	}
	last := len(intents) - 1
	target.Primary = intents[last]
	target.Alternates = append(target.Alternates, intents[:last]...)
	return target
}

func toDispatchIntent(descriptor ProviderDescriptor, sink PendingOutputSink) DispatchIntent {
	intent := DispatchIntent{
		ProviderID:        descriptor.ProviderID,
		Kind:              descriptor.Kind,
		Action:            descriptor.Action,
		ContentTypeFilter: descriptor.ContentTypeFilter,
	}
	if descriptor.Kind == ProviderKindCapture {
		intent.OutputLocator = strings.TrimSpace(sink.PreallocatedLocator)
	}
	return intent
}
