// Package recommendation maps each texture class to its agronomic
// recommendation for Côte d'Ivoire growers.
package recommendation

import (
	"fmt"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

var table = [models.NumTextureClasses]models.RecommendationRecord{
	models.ClayLoam: {
		PrimaryCrops:   "Cacao, Palmier à huile, Hévéa",
		StapleCrops:    "Banane plantain, Igname, Taro",
		VegetableCrops: "Tomate, Piment, Gombo, Aubergine, Poivron",
		FavorableZones: "Sud, Est, Centre-Ouest",
		Irrigation:     "Modérée",
		Fertilization:  "Modérée à forte",
		Precautions:    "Drainage en saison pluvieuse, surveillance compaction",
	},
	models.Loam: {
		PrimaryCrops:   "Anacarde, Coton, Maïs",
		StapleCrops:    "Manioc, Igname, Arachide",
		VegetableCrops: "Tomate, Piment, Choux, Concombre, Laitue, Carotte",
		FavorableZones: "Centre, Nord",
		Irrigation:     "Moyenne",
		Fertilization:  "Modérée",
		Precautions:    "Maintien matière organique, rotation cultures",
	},
	models.SandyLoam: {
		PrimaryCrops:   "Ananas, Manioc, Arachide",
		StapleCrops:    "Patate douce, Maraîchage",
		VegetableCrops: "Oignon, Poireau, Aubergine, Piment, Tomate cerise",
		FavorableZones: "Centre, Sud-Est",
		Irrigation:     "Fréquente",
		Fertilization:  "Régulière",
		Precautions:    "Irrigation en saison sèche, enrichissement organique",
	},
	models.LoamySand: {
		PrimaryCrops:   "Manioc, Ananas",
		StapleCrops:    "Arachide, Pastèque",
		VegetableCrops: "Melon, Pastèque, Concombre, Courgette",
		FavorableZones: "Littoral, Sud",
		Irrigation:     "Très fréquente",
		Fertilization:  "Forte",
		Precautions:    "Irrigation obligatoire, enrichissement organique constant",
	},
	models.Clay: {
		PrimaryCrops:   "Riz irrigué, Palmier à huile",
		StapleCrops:    "Taro, Banane plantain",
		VegetableCrops: "Choux, Epinard, Basilic, Persil, Céleri",
		FavorableZones: "Bas-fonds, Zones humides",
		Irrigation:     "Faible",
		Fertilization:  "Modérée",
		Precautions:    "Drainage crucial, travail sol adapté",
	},
	models.SandyClayLoam: {
		PrimaryCrops:   "Cacao, Hévéa, Anacarde",
		StapleCrops:    "Maïs, Igname, Manioc",
		VegetableCrops: "Tomate, Piment, Aubergine, Gombo, Poivron, Concombre",
		FavorableZones: "Centre-Ouest, Sud-Ouest",
		Irrigation:     "Modérée",
		Fertilization:  "Modérée",
		Precautions:    "Équilibre drainage-rétention",
	},
}

func init() {
	if err := Verify(); err != nil {
		panic(err)
	}
}

// Lookup returns the recommendation for t. It panics for a value outside
// the enumeration, which can only come from a programming error.
func Lookup(t models.TextureClass) models.RecommendationRecord {
	if !t.Valid() {
		panic(fmt.Sprintf("recommendation: invalid texture class %d", int(t)))
	}
	return table[t]
}

// Verify checks that every texture class has a record with no empty field.
func Verify() error {
	for _, t := range models.AllTextureClasses() {
		rec := table[t]
		fields := map[string]string{
			"primary_crops":   rec.PrimaryCrops,
			"staple_crops":    rec.StapleCrops,
			"vegetable_crops": rec.VegetableCrops,
			"favorable_zones": rec.FavorableZones,
			"irrigation":      rec.Irrigation,
			"fertilization":   rec.Fertilization,
			"precautions":     rec.Precautions,
		}
		for name, value := range fields {
			if value == "" {
				return fmt.Errorf("recommendation for %s has empty %s", t, name)
			}
		}
	}
	return nil
}
