package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/ordermailer/lib/myevents"
	"github.com/MarcGrol/ordermailer/lib/mypubsub"
	"github.com/MarcGrol/ordermailer/lib/mytime"
)

type somethingHappened struct {
	UID  string
	What string
}

func (e somethingHappened) GetEventTypeName() string {
	return "test.somethingHappened"
}

func (e somethingHappened) GetAggregateName() string {
	return e.UID
}

func TestPublisher(t *testing.T) {

	t.Run("Publish wraps event in envelope", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		pubsub := mypubsub.NewMockPubSub(ctrl)
		nower := mytime.NewMockNower(ctrl)
		sut := New(pubsub, nower)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		var published string
		pubsub.EXPECT().Publish(gomock.Any(), "test", gomock.Any()).DoAndReturn(func(c context.Context, topic string, data string) error {
			published = data
			return nil
		})

		// when
		err := sut.Publish(context.TODO(), "test", somethingHappened{UID: "123", What: "it"})

		// then
		assert.NoError(t, err)
		envelope := myevents.EventEnvelope{}
		err = json.Unmarshal([]byte(published), &envelope)
		assert.NoError(t, err)
		assert.Equal(t, "test", envelope.Topic)
		assert.Equal(t, "123", envelope.AggregateUID)
		assert.Equal(t, "test.somethingHappened", envelope.EventTypeName)
		assert.Equal(t, `{"UID":"123","What":"it"}`, envelope.EventPayload)
		assert.Equal(t, mytime.ExampleTime, envelope.CreatedAt)
		assert.NotEmpty(t, envelope.UID)
	})

	t.Run("Publish error is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		pubsub := mypubsub.NewMockPubSub(ctrl)
		nower := mytime.NewMockNower(ctrl)
		sut := New(pubsub, nower)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		pubsub.EXPECT().Publish(gomock.Any(), "test", gomock.Any()).Return(fmt.Errorf("down"))

		// when
		err := sut.Publish(context.TODO(), "test", somethingHappened{UID: "123"})

		// then
		assert.Error(t, err)
	})
}

func TestEnvelopeUIDIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
	e := newEnveloper(nower)

	first, err := e.do("test", somethingHappened{UID: "123", What: "it"})
	assert.NoError(t, err)
	second, err := e.do("test", somethingHappened{UID: "123", What: "it"})
	assert.NoError(t, err)

	assert.Equal(t, first.UID, second.UID)
}
