package auctionhouse_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/auctionhouse"
	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/testhelpers"
)

func TestAMQPClientIntegration(t *testing.T) {
	broker := testhelpers.NewTestBroker(t)
	defer broker.Close()

	ctx := context.Background()

	conn, err := amqp.Dial(broker.AmqpURL)
	require.NoError(t, err)
	defer conn.Close()

	client, err := auctionhouse.NewAMQPClient(conn)
	require.NoError(t, err)
	defer client.Close()

	// A second connection plays the auction house.
	houseConn, err := amqp.Dial(broker.AmqpURL)
	require.NoError(t, err)
	defer houseConn.Close()

	houseCh, err := houseConn.Channel()
	require.NoError(t, err)
	defer houseCh.Close()

	t.Run("placed bids reach the house", func(t *testing.T) {
		q, err := houseCh.QueueDeclare("", false, false, true, false, nil)
		require.NoError(t, err)
		require.NoError(t, houseCh.QueueBind(q.Name, "bids", auctionhouse.Exchange, false, nil))

		msgs, err := houseCh.Consume(q.Name, "", true, false, false, false, nil)
		require.NoError(t, err)

		require.NoError(t, client.PlaceBid(ctx, "foo", 12))

		select {
		case msg := <-msgs:
			var bid auction.ItemBid
			require.NoError(t, json.Unmarshal(msg.Body, &bid))
			assert.Equal(t, auction.ItemBid{Item: "foo", Price: 12}, bid)
			assert.NotEmpty(t, msg.MessageId)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for the placed bid")
		}
	})

	t.Run("house notifications arrive via poll", func(t *testing.T) {
		published := event.AuctionHouseBid("foo", auction.BidDetails{
			Bidder: auction.BidderOther, Price: 10, Increment: 2,
		})
		body, err := json.Marshal(published.AuctionHouse)
		require.NoError(t, err)

		err = houseCh.PublishWithContext(ctx,
			auctionhouse.Exchange, "events", false, false,
			amqp.Publishing{ContentType: "application/json", Body: body},
		)
		require.NoError(t, err)

		polled, err := client.Poll(ctx, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, polled)
		assert.True(t, published.Equal(event.Event{AuctionHouse: polled}))
	})

	t.Run("poll times out nil when the house is silent", func(t *testing.T) {
		polled, err := client.Poll(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Nil(t, polled)
	})
}
