package content

import (
	"fmt"
	"strings"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"gorm.io/gorm"
)

// replaceChildren reconciles each non-nil child set against stored rows.
// Storage keys of removed media are appended to removedKeys when non-nil.
func (s *Service) replaceChildren(tx *gorm.DB, storyID string, in *StoryInput, removedKeys *[]string) error {
	if in.Milestones != nil {
		if err := replaceMilestones(tx, storyID, in.Milestones); err != nil {
			return err
		}
	}
	if in.ThankYouMessages != nil {
		if err := replaceThankYous(tx, storyID, in.ThankYouMessages); err != nil {
			return err
		}
	}
	if in.Media != nil {
		keys, err := replaceMedia(tx, storyID, in.Media)
		if err != nil {
			return err
		}
		if removedKeys != nil {
			*removedKeys = append(*removedKeys, keys...)
		}
	}
	return nil
}

// replaceMilestones makes the stored set equal items, renumbering
// display_order to 1..n in submitted order.
func replaceMilestones(tx *gorm.DB, storyID string, items []MilestoneInput) error {
	var existing []models.Milestone
	if err := tx.Where("story_id = ?", storyID).Find(&existing).Error; err != nil {
		return fmt.Errorf("loading milestones: %w", err)
	}
	stored := make(map[string]bool, len(existing))
	for _, m := range existing {
		stored[m.ID] = true
	}

	kept := make(map[string]bool, len(items))
	for i, item := range items {
		order := i + 1
		if item.ID != "" && stored[item.ID] && !kept[item.ID] {
			kept[item.ID] = true
			err := tx.Model(&models.Milestone{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"title":         strings.TrimSpace(item.Title),
				"description":   item.Description,
				"date":          item.Date,
				"display_order": order,
			}).Error
			if err != nil {
				return fmt.Errorf("updating milestone: %w", err)
			}
			continue
		}
		row := models.Milestone{
			StoryID:      storyID,
			Title:        strings.TrimSpace(item.Title),
			Description:  item.Description,
			Date:         item.Date,
			DisplayOrder: order,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating milestone: %w", err)
		}
	}

	return deleteUnkept(tx, &models.Milestone{}, existingIDs(existing, func(m models.Milestone) string { return m.ID }), kept)
}

func replaceThankYous(tx *gorm.DB, storyID string, items []ThankYouInput) error {
	var existing []models.ThankYouMessage
	if err := tx.Where("story_id = ?", storyID).Find(&existing).Error; err != nil {
		return fmt.Errorf("loading thank-you messages: %w", err)
	}
	stored := make(map[string]bool, len(existing))
	for _, t := range existing {
		stored[t.ID] = true
	}

	kept := make(map[string]bool, len(items))
	for i, item := range items {
		order := i + 1
		if item.ID != "" && stored[item.ID] && !kept[item.ID] {
			kept[item.ID] = true
			err := tx.Model(&models.ThankYouMessage{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"author_name":   strings.TrimSpace(item.AuthorName),
				"author_role":   item.AuthorRole,
				"message":       strings.TrimSpace(item.Message),
				"featured":      item.Featured,
				"display_order": order,
			}).Error
			if err != nil {
				return fmt.Errorf("updating thank-you message: %w", err)
			}
			continue
		}
		row := models.ThankYouMessage{
			StoryID:      storyID,
			AuthorName:   strings.TrimSpace(item.AuthorName),
			AuthorRole:   item.AuthorRole,
			Message:      strings.TrimSpace(item.Message),
			Featured:     item.Featured,
			DisplayOrder: order,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating thank-you message: %w", err)
		}
	}

	return deleteUnkept(tx, &models.ThankYouMessage{}, existingIDs(existing, func(t models.ThankYouMessage) string { return t.ID }), kept)
}

// replaceMedia keeps and reorders the listed media rows and deletes the
// rest. Unknown ids are rejected since media can only be created by upload.
func replaceMedia(tx *gorm.DB, storyID string, items []MediaInput) ([]string, error) {
	var existing []models.StoryMedia
	if err := tx.Where("story_id = ?", storyID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("loading media: %w", err)
	}
	byID := make(map[string]models.StoryMedia, len(existing))
	for _, m := range existing {
		byID[m.ID] = m
	}

	kept := make(map[string]bool, len(items))
	for i, item := range items {
		if _, ok := byID[item.ID]; !ok || kept[item.ID] {
			return nil, apierrors.ValidationError(fmt.Sprintf("media[%d].id", i), "unknown media item")
		}
		kept[item.ID] = true
		err := tx.Model(&models.StoryMedia{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"caption":       strings.TrimSpace(item.Caption),
			"display_order": i + 1,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("updating media: %w", err)
		}
	}

	var removed []string
	for _, m := range existing {
		if !kept[m.ID] {
			removed = append(removed, m.StorageKey)
		}
	}
	if err := deleteUnkept(tx, &models.StoryMedia{}, existingIDs(existing, func(m models.StoryMedia) string { return m.ID }), kept); err != nil {
		return nil, err
	}
	return removed, nil
}

func existingIDs[T any](rows []T, id func(T) string) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, id(r))
	}
	return ids
}

func deleteUnkept(tx *gorm.DB, model interface{}, ids []string, kept map[string]bool) error {
	var stale []string
	for _, id := range ids {
		if !kept[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", stale).Delete(model).Error; err != nil {
		return fmt.Errorf("deleting %T: %w", model, err)
	}
	return nil
}
