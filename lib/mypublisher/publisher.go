package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MarcGrol/ordermailer/lib/myevents"
	"github.com/MarcGrol/ordermailer/lib/mypubsub"
	"github.com/MarcGrol/ordermailer/lib/mytime"
)

type publisher struct {
	pubsub    mypubsub.PubSub
	enveloper enveloper
}

// New publishes enveloped events straight onto pubsub, without an outbox
func New(pubsub mypubsub.PubSub, nower mytime.Nower) *publisher {
	return &publisher{
		pubsub:    pubsub,
		enveloper: newEnveloper(nower),
	}
}

func (p *publisher) CreateTopic(c context.Context, topicName string) error {
	return p.pubsub.CreateTopic(c, topicName)
}

func (p *publisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := p.enveloper.do(topic, event)
	if err != nil {
		return fmt.Errorf("error creating envelope: %s", err)
	}

	jsonBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("error serializing envelope %s: %s", envelope, err)
	}

	err = p.pubsub.Publish(c, topic, string(jsonBytes))
	if err != nil {
		return fmt.Errorf("error publishing event %s: %s", envelope, err)
	}

	return nil
}
