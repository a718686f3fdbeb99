package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/integrations"
)

type ConnectIntegrationInput struct {
	Provider    string `json:"provider" validate:"required,oneof=github linkedin medium behance dribbble"`
	AccountName string `json:"account_name"`
	AccessToken string `json:"access_token"`
}

// ConnectIntegration links an external account. The OAuth exchange
// happens on the frontend; we store the resulting token and handle.
// Medium and Behance are public-feed providers and need a username
// instead of a token.
func ConnectIntegration(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(ConnectIntegrationInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	switch input.Provider {
	case model.ProviderMedium, model.ProviderBehance:
		if input.AccountName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "account_name is required for this provider",
			})
		}
	default:
		if input.AccessToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "access_token is required for this provider",
			})
		}
	}

	db := database.GetDB()

	var account model.IntegrationAccount
	err := db.Where("user_id = ? AND provider = ?", claims.UserID, input.Provider).
		First(&account).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch integration",
		})
	}

	account.UserID = claims.UserID
	account.Provider = input.Provider
	account.AccountName = input.AccountName
	account.AccessToken = input.AccessToken

	if err := db.Save(&account).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not connect integration",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

func DisconnectIntegration(c *fiber.Ctx) error {
	claims := currentClaims(c)
	provider := c.Params("provider")

	if err := database.GetDB().
		Where("user_id = ? AND provider = ?", claims.UserID, provider).
		Delete(&model.IntegrationAccount{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not disconnect integration",
		})
	}

	return c.JSON(fiber.Map{"message": "Integration disconnected"})
}

func ListIntegrations(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var accounts []model.IntegrationAccount
	if err := database.GetDB().Where("user_id = ?", claims.UserID).
		Find(&accounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch integrations",
		})
	}

	return c.JSON(accounts)
}

// SyncIntegration pulls fresh data from the provider and replaces the
// locally cached rows.
func SyncIntegration(c *fiber.Ctx) error {
	claims := currentClaims(c)
	provider := c.Params("provider")

	var account model.IntegrationAccount
	err := database.GetDB().
		Where("user_id = ? AND provider = ?", claims.UserID, provider).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Integration not connected",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch integration",
		})
	}

	if err := syncProvider(&account); err != nil {
		log.Printf("Could not sync %s for user %d: %v", provider, claims.UserID, err)
		if errors.Is(err, integrations.ErrExternalService) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Provider request failed",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not sync integration",
		})
	}

	now := time.Now()
	database.GetDB().Model(&account).Update("synced_at", now)
	account.SyncedAt = &now

	return c.JSON(account)
}

// GetIntegrationData returns the cached provider rows used by the
// portfolio editor.
func GetIntegrationData(c *fiber.Ctx) error {
	claims := currentClaims(c)
	provider := c.Params("provider")
	db := database.GetDB()

	switch provider {
	case model.ProviderGithub:
		var profile model.GithubProfile
		var repos []model.GithubRepo
		db.Where("user_id = ?", claims.UserID).First(&profile)
		db.Where("user_id = ?", claims.UserID).Order("pushed_at desc").Find(&repos)
		return c.JSON(fiber.Map{"profile": profile, "repos": repos})
	case model.ProviderLinkedin:
		var profile model.LinkedinProfile
		db.Where("user_id = ?", claims.UserID).First(&profile)
		return c.JSON(fiber.Map{"profile": profile})
	case model.ProviderMedium:
		var posts []model.MediumPost
		db.Where("user_id = ?", claims.UserID).Order("published_at desc").Find(&posts)
		return c.JSON(fiber.Map{"posts": posts})
	case model.ProviderBehance:
		var projects []model.BehanceProject
		db.Where("user_id = ?", claims.UserID).Find(&projects)
		return c.JSON(fiber.Map{"projects": projects})
	case model.ProviderDribbble:
		var shots []model.DribbbleShot
		db.Where("user_id = ?", claims.UserID).Find(&shots)
		return c.JSON(fiber.Map{"shots": shots})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown provider",
		})
	}
}

func syncProvider(account *model.IntegrationAccount) error {
	switch account.Provider {
	case model.ProviderGithub:
		return syncGithub(account)
	case model.ProviderLinkedin:
		return syncLinkedin(account)
	case model.ProviderMedium:
		return syncMedium(account)
	case model.ProviderBehance:
		return syncBehance(account)
	case model.ProviderDribbble:
		return syncDribbble(account)
	default:
		return errors.New("unknown provider")
	}
}

func syncGithub(account *model.IntegrationAccount) error {
	client := integrations.NewGithubClient()

	user, err := client.FetchUser(account.AccessToken)
	if err != nil {
		return err
	}
	repos, err := client.FetchRepos(account.AccessToken, 30)
	if err != nil {
		return err
	}

	db := database.GetDB()
	now := time.Now()

	var profile model.GithubProfile
	db.Where("user_id = ?", account.UserID).First(&profile)
	profile.UserID = account.UserID
	profile.Login = user.Login
	profile.Name = user.Name
	profile.AvatarURL = user.AvatarURL
	profile.Bio = user.Bio
	profile.PublicRepos = user.PublicRepos
	profile.Followers = user.Followers
	profile.SyncedAt = &now
	if err := db.Save(&profile).Error; err != nil {
		return err
	}

	if account.AccountName == "" {
		db.Model(account).Update("account_name", user.Login)
		account.AccountName = user.Login
	}

	db.Where("user_id = ?", account.UserID).Delete(&model.GithubRepo{})
	for _, r := range repos {
		row := model.GithubRepo{
			UserID:      account.UserID,
			Name:        r.Name,
			FullName:    r.FullName,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
			HTMLURL:     r.HTMLURL,
			PushedAt:    r.PushedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func syncLinkedin(account *model.IntegrationAccount) error {
	info, err := integrations.NewLinkedinClient().FetchUserinfo(account.AccessToken)
	if err != nil {
		return err
	}

	db := database.GetDB()
	now := time.Now()

	var profile model.LinkedinProfile
	db.Where("user_id = ?", account.UserID).First(&profile)
	profile.UserID = account.UserID
	profile.Name = info.Name
	profile.Email = info.Email
	profile.PictureURL = info.Picture
	profile.Locale = info.Locale
	profile.SyncedAt = &now
	return db.Save(&profile).Error
}

func syncMedium(account *model.IntegrationAccount) error {
	stories, err := integrations.NewMediumClient().FetchStories(account.AccountName)
	if err != nil {
		return err
	}

	db := database.GetDB()
	db.Where("user_id = ?", account.UserID).Delete(&model.MediumPost{})
	for _, s := range stories {
		tags := datatypes.JSONMap{}
		for _, cat := range s.Categories {
			tags[cat] = true
		}
		row := model.MediumPost{
			UserID:      account.UserID,
			Title:       s.Title,
			URL:         s.Link,
			PublishedAt: s.PublishedAt(),
			Tags:        tags,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func syncBehance(account *model.IntegrationAccount) error {
	projects, err := integrations.NewBehanceClient(cfg.App.BehanceAPIKey).
		FetchProjects(account.AccountName)
	if err != nil {
		return err
	}

	db := database.GetDB()
	db.Where("user_id = ?", account.UserID).Delete(&model.BehanceProject{})
	for _, p := range projects {
		row := model.BehanceProject{
			UserID:        account.UserID,
			Name:          p.Name,
			URL:           p.URL,
			CoverURL:      p.Cover(),
			Appreciations: p.Stats.Appreciations,
			ViewsCount:    p.Stats.Views,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func syncDribbble(account *model.IntegrationAccount) error {
	shots, err := integrations.NewDribbbleClient().FetchShots(account.AccessToken, 30)
	if err != nil {
		return err
	}

	db := database.GetDB()
	db.Where("user_id = ?", account.UserID).Delete(&model.DribbbleShot{})
	for _, s := range shots {
		image := s.Images.HiDPI
		if image == "" {
			image = s.Images.Normal
		}
		row := model.DribbbleShot{
			UserID:   account.UserID,
			Title:    s.Title,
			URL:      s.HTMLURL,
			ImageURL: image,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
