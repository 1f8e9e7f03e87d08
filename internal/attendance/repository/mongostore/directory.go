package mongostore

import (
	"context"
	"time"

	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type agentDocument struct {
	ID            string     `bson:"_id"`
	Name          string     `bson:"name"`
	Position      string     `bson:"position"`
	ClientID      *string    `bson:"clientId,omitempty"`
	WorksFromHome bool       `bson:"worksFromHome"`
	DeletedAt     *time.Time `bson:"deletedAt,omitempty"`
}

func (d agentDocument) toAgent() domain.Agent {
	return domain.Agent{
		ID:            d.ID,
		Name:          d.Name,
		Position:      d.Position,
		ClientID:      d.ClientID,
		WorksFromHome: d.WorksFromHome,
	}
}

type clientDocument struct {
	ID        string     `bson:"_id"`
	Name      string     `bson:"name"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty"`
}

// Directory is the MongoDB copy of the agent/client directory
type Directory struct {
	agents  *mongo.Collection
	clients *mongo.Collection
	now     func() time.Time
}

// NewDirectory creates a directory on db
func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{
		agents:  db.Collection(agentsCollection),
		clients: db.Collection(clientsCollection),
		now:     time.Now,
	}
}

// ListAgents lists active agents ordered by name
func (d *Directory) ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error) {
	query := bson.M{"deletedAt": nil}
	if filter.ClientID != nil {
		query["clientId"] = *filter.ClientID
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := d.agents.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError(err)
	}
	defer cursor.Close(ctx)

	var docs []agentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(err)
	}

	agents := make([]domain.Agent, 0, len(docs))
	for _, doc := range docs {
		agents = append(agents, doc.toAgent())
	}
	return agents, nil
}

// GetAgent gets an active agent by ID
func (d *Directory) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	var doc agentDocument
	err := d.agents.FindOne(ctx, bson.M{"_id": id, "deletedAt": nil}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.UnknownAgent(id)
	}
	if err != nil {
		return nil, storeError(err)
	}

	agent := doc.toAgent()
	return &agent, nil
}

// ListClients lists active clients ordered by name
func (d *Directory) ListClients(ctx context.Context) ([]domain.Client, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := d.clients.Find(ctx, bson.M{"deletedAt": nil}, opts)
	if err != nil {
		return nil, storeError(err)
	}
	defer cursor.Close(ctx)

	var docs []clientDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(err)
	}

	clients := make([]domain.Client, 0, len(docs))
	for _, doc := range docs {
		clients = append(clients, domain.Client{ID: doc.ID, Name: doc.Name})
	}
	return clients, nil
}

// UpsertAgent creates or replaces an agent, reviving a deleted one
func (d *Directory) UpsertAgent(ctx context.Context, agent domain.Agent) error {
	doc := agentDocument{
		ID:            agent.ID,
		Name:          agent.Name,
		Position:      agent.Position,
		ClientID:      agent.ClientID,
		WorksFromHome: agent.WorksFromHome,
	}
	_, err := d.agents.ReplaceOne(ctx, bson.M{"_id": agent.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteAgent soft deletes an agent. Its attendance history stays.
func (d *Directory) DeleteAgent(ctx context.Context, id string) error {
	_, err := d.agents.UpdateOne(ctx,
		bson.M{"_id": id, "deletedAt": nil},
		bson.M{"$set": bson.M{"deletedAt": d.now().UTC()}},
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// UpsertClient creates or replaces a client
func (d *Directory) UpsertClient(ctx context.Context, client domain.Client) error {
	doc := clientDocument{ID: client.ID, Name: client.Name}
	_, err := d.clients.ReplaceOne(ctx, bson.M{"_id": client.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteClient soft deletes a client and detaches its agents
func (d *Directory) DeleteClient(ctx context.Context, id string) error {
	_, err := d.clients.UpdateOne(ctx,
		bson.M{"_id": id, "deletedAt": nil},
		bson.M{"$set": bson.M{"deletedAt": d.now().UTC()}},
	)
	if err != nil {
		return storeError(err)
	}

	_, err = d.agents.UpdateMany(ctx,
		bson.M{"clientId": id},
		bson.M{"$unset": bson.M{"clientId": ""}},
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}
