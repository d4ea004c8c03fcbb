package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"Bt1Clip/config"
	"Bt1Clip/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶诊断",
	Long:  `查看MinIO存储桶中的素材对象，支持按前缀过滤。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		if err := storage.InitMinio(); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		fmt.Printf("\n列出存储桶中的对象 (前缀: %q)...\n", minioPrefix)
		objects, err := storage.ListObjects(context.Background(), cfg.MinioBucket, minioPrefix)
		if err != nil {
			log.Fatalf("列出对象失败: %v", err)
		}

		var total int64
		for _, obj := range objects {
			fmt.Printf("  %-60s %10d bytes  %s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
			total += obj.Size
		}
		fmt.Printf("\n共 %d 个对象，%d bytes\n", len(objects), total)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤对象")

	minioCmd.Example = `  # 列出所有对象
  1clip_server minio

  # 按前缀过滤
  1clip_server minio -p "samples/"`
}
