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

		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
			},
			&core.TextField{
				Name: "description",
			},
			&core.TextField{
				Name:     "location",
				Required: true,
			},
			&core.DateField{
				Name:     "date",
				Required: true,
			},
			&core.URLField{
				Name: "image_url",
			},
			&core.BoolField{
				Name: "featured",
			},
			&core.RelationField{
				Name:         "organizer",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.JSONField{
				Name:     "tiers",
				Required: true,
				MaxSize:  1 << 16,
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

		collection.AddIndex("idx_events_featured", false, "featured", "")
		collection.AddIndex("idx_events_organizer", false, "organizer", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
