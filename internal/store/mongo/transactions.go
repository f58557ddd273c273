package mongo

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/store"
)

// transactionDoc is the storage row for one transaction.
type transactionDoc struct {
	ExternalID     string   `bson:"external_id"`
	AccountID      string   `bson:"account_id"`
	UserID         string   `bson:"user_id"`
	Amount         float64  `bson:"amount"`
	Date           string   `bson:"date"` // YYYY-MM-DD
	Name           string   `bson:"name"`
	PaymentChannel string   `bson:"payment_channel"`
	Category       []string `bson:"category,omitempty"`
	CurrencyCode   string   `bson:"currency_code,omitempty"`
	Status         string   `bson:"status"`
}

func toTransactionDoc(tx *domain.Transaction) transactionDoc {
	return transactionDoc{
		ExternalID:     tx.ExternalID,
		AccountID:      tx.AccountID,
		UserID:         tx.UserID,
		Amount:         tx.Amount,
		Date:           tx.Date.String(),
		Name:           tx.Name,
		PaymentChannel: string(tx.PaymentChannel),
		Category:       tx.Category,
		CurrencyCode:   tx.CurrencyCode,
		Status:         string(tx.Status),
	}
}

func (d transactionDoc) toDomain() (domain.Transaction, error) {
	date, err := civil.ParseDate(d.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid stored date %q: %w", d.ExternalID, d.Date, err)
	}
	return domain.Transaction{
		ExternalID:     d.ExternalID,
		AccountID:      d.AccountID,
		UserID:         d.UserID,
		Amount:         d.Amount,
		Date:           date,
		Name:           d.Name,
		PaymentChannel: domain.PaymentChannel(d.PaymentChannel),
		Category:       d.Category,
		CurrencyCode:   d.CurrencyCode,
		Status:         domain.TransactionStatus(d.Status),
	}, nil
}

// TransactionRepository implements store.Transactions on MongoDB.
type TransactionRepository struct {
	coll *mongo.Collection
}

// newestFirst builds find options sorting by date descending. Dates are
// stored as YYYY-MM-DD strings, so the lexicographic sort is the
// chronological one.
func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
}

// Upsert implements store.Transactions. The filter is the external id,
// every mutable field is $set, so re-applying a sync page is a no-op.
func (r *TransactionRepository) Upsert(ctx context.Context, tx *domain.Transaction) error {
	doc := toTransactionDoc(tx)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"external_id": doc.ExternalID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Upsert: transaction %s: %w", doc.ExternalID, err)
	}
	return nil
}

// InsertMany implements store.Transactions.
func (r *TransactionRepository) InsertMany(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(txs))
	for i := range txs {
		docs = append(docs, toTransactionDoc(&txs[i]))
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("InsertMany: %w", err)
	}
	return nil
}

// DeleteByExternalIDs implements store.Transactions.
func (r *TransactionRepository) DeleteByExternalIDs(ctx context.Context, userID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{
		"user_id":     userID,
		"external_id": bson.M{"$in": externalIDs},
	})
	if err != nil {
		return fmt.Errorf("DeleteByExternalIDs: %w", err)
	}
	return nil
}

// DeleteByUser implements store.Transactions.
func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("DeleteByUser: %w", err)
	}
	return nil
}

// ListRecent implements store.Transactions.
func (r *TransactionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	opts := newestFirst()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

// ListOnDate implements store.Transactions.
func (r *TransactionRepository) ListOnDate(ctx context.Context, userID string, date civil.Date) ([]domain.Transaction, error) {
	return r.find(ctx, bson.M{"user_id": userID, "date": date.String()}, nil)
}

// ListRange implements store.Transactions.
func (r *TransactionRepository) ListRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.Transaction, error) {
	filter := bson.M{"user_id": userID}
	dateFilter := bson.M{}
	if start.IsValid() {
		dateFilter["$gte"] = start.String()
	}
	if end.IsValid() {
		dateFilter["$lte"] = end.String()
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}
	return r.find(ctx, filter, newestFirst())
}

// CountByUser implements store.Transactions.
func (r *TransactionRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("CountByUser: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Transaction, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.coll.Find(ctx, filter, opts)
	} else {
		cursor, err = r.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find: decode: %w", err)
	}

	result := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		tx, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		result = append(result, tx)
	}
	return result, nil
}

var _ store.Transactions = (*TransactionRepository)(nil)
