package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "user",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name:     "tier",
				Required: true,
			},
			&core.NumberField{
				Name: "price",
			},
			&core.TextField{
				Name:     "proof",
				Required: true,
				Max:      2048,
			},
			&core.TextField{
				Name: "qr_code",
				Max:  1 << 16,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"purchased", "scanned", "cancelled"},
			},
			&core.DateField{
				Name:     "purchase_date",
				Required: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		// One row per purchase slot. Confirmation retries dedupe against
		// this instead of inserting a second ticket.
		collection.AddIndex("idx_tickets_slot", true, "user, event, tier, purchase_date", "")
		collection.AddIndex("idx_tickets_capacity", false, "event, tier, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
