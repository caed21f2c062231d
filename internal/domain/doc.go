// Package domain models the structure attributes collected by the damage
// prediction form and the class codes returned by the classifier.
//
// # Feature Schema
//
// The classifier was fit on eight columns taken from CAL FIRE damage
// inspection (DINS) records, in this order:
//
//	Assessed Improved Value (parcel)   numeric, 0 to 10,000,000
//	Structure Category                 categorical
//	Roof Construction                  categorical
//	Eaves                              categorical
//	Vent Screen                        categorical
//	Exterior Siding                    categorical
//	Window Pane                        categorical
//	Fence Attached to Structure        categorical
//
// Column order is part of the model contract. A record with the right values
// in the wrong order is accepted by the model and silently mispredicted, so
// records are only ever built through [FeatureSchema.NewRecord].
//
// Categorical values are compared exactly as they appeared in the training
// data. Several are inconsistent in the source records and are kept that way:
//
//	"Stucco Brick Cement" and "Stucco/Brick/Cement" are distinct siding values.
//	`Mesh Screen <= 1/8""` carries a doubled quote left over from CSV escaping.
//	"No Deck/Porch" and "Asphalt" appear under Window Pane.
//
// No trimming or case folding is applied.
//
// # Damage Labels
//
// The classifier emits integer class codes from the label encoder used at
// training time. The encoding follows the encoder's fit order, not severity:
//
//	0  Affected (1-9%)
//	1  Destroyed (>50%)
//	2  Major (26-50%)
//	3  Minor (10-25%)
//	4  No Damage
//
// Any other code resolves to [LabelUnknown] and is still a successful
// prediction. See [DamageLabelMap].
package domain
