package mypubsub

import (
	"context"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/pubsub"
	grpcCodes "google.golang.org/grpc/codes"
	grpcStatus "google.golang.org/grpc/status"

	"github.com/MarcGrol/ordermailer/lib/mylog"
)

type gcloudPubSub struct {
	client *pubsub.Client
	logger mylog.Logger
	sync.Mutex
	topics map[string]*pubsub.Topic
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudPubSub
	}
}

func newGcloudPubSub(c context.Context) (PubSub, func(), error) {
	client, err := pubsub.NewClient(c, os.Getenv("GOOGLE_CLOUD_PROJECT"))
	if err != nil {
		return nil, func() {}, fmt.Errorf("error creating pubsub client: %s", err)
	}

	ps := &gcloudPubSub{
		client: client,
		logger: mylog.New("pubsub"),
		topics: map[string]*pubsub.Topic{},
	}
	return ps, func() {
		ps.Lock()
		for _, topic := range ps.topics {
			topic.Stop()
		}
		ps.Unlock()
		client.Close()
	}, nil
}

func (ps *gcloudPubSub) CreateTopic(c context.Context, topicName string) error {
	_, err := ps.client.CreateTopic(c, topicName)
	if err != nil {
		rsp, ok := grpcStatus.FromError(err)
		if ok && rsp.Code() == grpcCodes.AlreadyExists {
			// Convert error into success
			return nil
		}
		return fmt.Errorf("error creating topic %s: %s", topicName, err)
	}

	ps.logger.Log(c, "", mylog.SeverityInfo, "Created topic %s", topicName)

	return nil
}

func (ps *gcloudPubSub) topic(topicName string) *pubsub.Topic {
	ps.Lock()
	defer ps.Unlock()

	topic, found := ps.topics[topicName]
	if !found {
		topic = ps.client.Topic(topicName)
		ps.topics[topicName] = topic
	}
	return topic
}

func (ps *gcloudPubSub) Publish(c context.Context, topicName string, data string) error {
	_, err := ps.topic(topicName).Publish(c, &pubsub.Message{Data: []byte(data)}).Get(c)
	if err != nil {
		return fmt.Errorf("error publishing event on topic %s: %s", topicName, err)
	}

	return nil
}
