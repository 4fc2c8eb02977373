package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"gitee.com/czyczk/medivault-sdk/internal/appinit"
	"gitee.com/czyczk/medivault-sdk/internal/background"
	"gitee.com/czyczk/medivault-sdk/internal/blobstore"
	"gitee.com/czyczk/medivault-sdk/internal/blockchain/bcao/fabricbcao"
	"gitee.com/czyczk/medivault-sdk/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/medivault-sdk/internal/controller"
	"gitee.com/czyczk/medivault-sdk/internal/custodian"
	"gitee.com/czyczk/medivault-sdk/internal/global"
	"gitee.com/czyczk/medivault-sdk/internal/networkinfo"
	"gitee.com/czyczk/medivault-sdk/internal/service"
	"gitee.com/czyczk/medivault-sdk/pkg/models/vault"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	var configPath, sdkConfigPath string

	// Functions to be used by the cli helper
	initFunc := getInitFunc(&configPath, &sdkConfigPath)
	serveFunc := getServeFunc(&configPath, &sdkConfigPath)

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:    "init",
				Aliases: []string{"i"},
				Usage:   "Initialize the network",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "conf",
						Aliases:     []string{"c"},
						Value:       "init.yaml",
						EnvVars:     []string{"MV_CONF"},
						Destination: &configPath,
					},
					&cli.StringFlag{
						Name:        "sdkconf",
						Aliases:     []string{"s"},
						Value:       "config-network.yaml",
						EnvVars:     []string{"MV_SDK_CONF"},
						Destination: &sdkConfigPath,
					},
				},
				Action: initFunc,
			},
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Start as server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "conf",
						Aliases:     []string{"c"},
						Value:       "serve.yaml",
						EnvVars:     []string{"MV_CONF"},
						Destination: &configPath,
					},
					&cli.StringFlag{
						Name:        "sdkconf",
						Aliases:     []string{"s"},
						Value:       "config-network.yaml",
						EnvVars:     []string{"MV_SDK_CONF"},
						Destination: &sdkConfigPath,
					},
				},
				Action: serveFunc,
			},
		},
	}

	// Run the cli helper
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func getInitFunc(configPath *string, sdkConfigPath *string) func(c *cli.Context) error {
	// The func for subcommand "init"
	initFunc := func(c *cli.Context) error {
		// Create a Fabric SDK instance
		sdk, err := appinit.SetupSDK(*sdkConfigPath)
		if err != nil {
			return err
		}

		defer sdk.Close()

		// Load init info from `init.yaml`
		initInfo, err := appinit.LoadInitInfo(*configPath)
		if err != nil {
			return err
		}

		// Init the app
		registry := appinit.NewClientRegistry(sdk)
		if err := appinit.InitApp(registry, &initInfo); err != nil {
			return err
		}

		// Fetch the network config info
		sdkConfig, err := sdk.Config()
		if err != nil {
			return err
		}
		networkConfig, err := networkinfo.ParseConfig(sdkConfig)
		if err != nil {
			return err
		}
		fmt.Println(networkConfig)

		return nil
	}

	return initFunc
}

func getServeFunc(configPath *string, sdkConfigPath *string) func(c *cli.Context) error {
	serveFunc := func(c *cli.Context) error {
		// Create a Fabric SDK instance
		sdk, err := appinit.SetupSDK(*sdkConfigPath)
		if err != nil {
			return err
		}

		defer sdk.Close()

		// Load serve info from `serve.yaml`
		serverInfo, err := appinit.LoadServerInfo(*configPath)
		if err != nil {
			return err
		}

		global.ShowTimingLogs = serverInfo.ShowTimingLogs

		// Extract some info from the config for later use
		orgName := serverInfo.User.OrgName
		userID := serverInfo.User.UserID

		if serverInfo.Threshold < 1 || serverInfo.Threshold > len(serverInfo.Custodians) {
			return fmt.Errorf("解密门限应为正数且不大于托管方数量")
		}

		// Create clients
		registry := appinit.NewClientRegistry(sdk)
		channelClient, err := registry.ChannelClient(serverInfo.ChannelID, orgName, userID)
		if err != nil {
			return err
		}

		ledgerClient, err := registry.LedgerClient(serverInfo.ChannelID, orgName, userID)
		if err != nil {
			return err
		}

		// Load the wallet key pair and the threshold encryption public params
		if serverInfo.Wallet == nil {
			return fmt.Errorf("未指定钱包密钥对")
		}

		signer, err := appinit.LoadWallet(serverInfo.Wallet)
		if err != nil {
			return err
		}

		publicParams, err := appinit.LoadPublicParams(serverInfo.ProtocolParams)
		if err != nil {
			return err
		}

		// Prepare the blob store network access
		if serverInfo.BlobStore == nil {
			return fmt.Errorf("未指定块存储网络配置")
		}

		relay, err := blobstore.NewUploadRelay(serverInfo.BlobStore.Publishers, serverInfo.BlobStore.TipBudget, serverInfo.BlobStore.TipPerPin, blobstore.DefaultUploadTimeout)
		if err != nil {
			return err
		}

		blobClient, err := blobstore.NewClient(serverInfo.BlobStore.Aggregators, relay, blobstore.DefaultReadTimeout)
		if err != nil {
			return err
		}

		// Prepare a pin server. It will be of use if the app is enabled as a pin server.
		pinServer := background.NewPinServer(relay, runtime.NumCPU(), 256)
		if serverInfo.IsPinServer {
			if err := pinServer.Start(); err != nil {
				return err
			}
		}

		// Connect the optional local cache database
		var localDB *gorm.DB
		if serverInfo.LocalDBDSN != "" {
			localDB, err = appinit.ConnectLocalDB(serverInfo.LocalDBDSN)
			if err != nil {
				return err
			}
		}

		// Assemble the chaincode context for the BCAO implementations
		chaincodeCtx := &chaincodectx.FabricChaincodeCtx{
			ChannelID:     serverInfo.ChannelID,
			OrgName:       orgName,
			Username:      userID,
			ChaincodeID:   serverInfo.ChaincodeID,
			ChannelClient: channelClient,
			LedgerClient:  ledgerClient,
		}

		custodians := make([]vault.ServiceRef, 0, len(serverInfo.Custodians))
		for _, custodianInfo := range serverInfo.Custodians {
			custodians = append(custodians, vault.ServiceRef{
				ID:       custodianInfo.ID,
				Endpoint: custodianInfo.Endpoint,
			})
		}

		serviceInfo := &service.Info{
			TrustRootRef: serverInfo.ChaincodeID,
			PublicParams: publicParams,
			Signer:       signer,
			DataBCAO:     fabricbcao.NewDataBCAOFabricImpl(chaincodeCtx),
			GrantBCAO:    fabricbcao.NewGrantBCAOFabricImpl(chaincodeCtx),
			BlobStore:    blobClient,
			ShareFetcher: custodian.NewClient(custodian.DefaultFetchTimeout),
			Custodians:   custodians,
			Threshold:    serverInfo.Threshold,
			DB:           localDB,
		}

		// Instantiate the services
		vaultSvc := &service.VaultService{ServiceInfo: serviceInfo}
		grantSvc := &service.GrantService{ServiceInfo: serviceInfo}
		sessionSvc := &service.SessionService{ServiceInfo: serviceInfo}

		// Instantiate controllers
		// Instantiate a ping pong controller
		pingPongController := &controller.PingPongController{}

		// Instantiate a record controller
		recordController := &controller.RecordController{
			GroupName:  "/record",
			VaultSvc:   vaultSvc,
			SessionSvc: sessionSvc,
		}

		// Instantiate a grant controller
		grantController := &controller.GrantController{
			GroupName: "/grant",
			GrantSvc:  grantSvc,
		}

		// Instantiate a session controller
		sessionController := &controller.SessionController{
			GroupName:  "/session",
			SessionSvc: sessionSvc,
		}

		// Register controller handlers
		router := gin.Default()
		router.Use(controller.CORSMiddleware())
		apiv1Group := router.Group("/api/v1")
		controller.RegisterHandlers(apiv1Group, pingPongController)
		controller.RegisterHandlers(apiv1Group, recordController)
		controller.RegisterHandlers(apiv1Group, grantController)
		controller.RegisterHandlers(apiv1Group, sessionController)

		// Start the HTTP server
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%v", serverInfo.Port),
			Handler: router,
		}

		chanError := make(chan error)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil {
				chanError <- errors.Wrap(err, "无法启动 HTTP 服务器")
			}
		}()

		// Listen Ctrl+C signals. On receiving a signal stops the app elegantly
		chanQuit := make(chan os.Signal, 1)
		signal.Notify(chanQuit, os.Interrupt)
		select {
		case err := <-chanError:
			return err
		case <-chanQuit:
			log.Infoln("收到 Ctrl+C 信号，正在退出程序...")

			// Stop the HTTP server elegantly
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Infoln("正在停止 HTTP 服务器...")
			if err := httpServer.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "无法正常停止 HTTP 服务器")
			}

			// Stop the pin server if enabled
			if serverInfo.IsPinServer {
				log.Infoln("正在停止钉札加固服务器...")
				wg, err := pinServer.Stop()
				if err != nil {
					return err
				}
				wg.Wait()
			}
		}

		return nil
	}

	return serveFunc
}
