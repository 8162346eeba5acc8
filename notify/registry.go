package notify

import (
	"fmt"
)

// ChannelConfig describes one enabled notifier channel.
type ChannelConfig struct {
	Type       string            `yaml:"type"`
	LocalFile  *LocalFileConfig  `yaml:"local_file,omitempty"`
	Mattermost *MattermostConfig `yaml:"mattermost,omitempty"`
}

// Constructor builds a notifier from its channel config.
type Constructor func(config ChannelConfig) (Notifier, error)

// Registry maps channel-type identifiers to notifier constructors. The
// built-in channels are registered by NewRegistry; callers may register
// additional types.
type Registry struct {
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register(localFileNotifierName, func(config ChannelConfig) (Notifier, error) {
		if config.LocalFile == nil {
			return nil, fmt.Errorf("missing local_file config")
		}
		return NewLocalFileNotifier(*config.LocalFile), nil
	})
	r.Register(mattermostNotifierName, func(config ChannelConfig) (Notifier, error) {
		if config.Mattermost == nil {
			return nil, fmt.Errorf("missing mattermost config")
		}
		return NewMattermostNotifier(*config.Mattermost), nil
	})
	return r
}

func (r *Registry) Register(channelType string, constructor Constructor) {
	r.constructors[channelType] = constructor
}

func (r *Registry) Build(config ChannelConfig) (Notifier, error) {
	constructor, ok := r.constructors[config.Type]
	if !ok {
		return nil, fmt.Errorf("invalid notifier type: %s", config.Type)
	}
	return constructor(config)
}

// BuildAll constructs every configured channel, failing on the first invalid one.
func (r *Registry) BuildAll(configs []ChannelConfig) ([]Notifier, error) {
	notifiers := make([]Notifier, 0, len(configs))
	for _, config := range configs {
		notifier, err := r.Build(config)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notifier)
	}
	return notifiers, nil
}
